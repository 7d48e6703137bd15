package conversation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PabloGalante/ai-accountant/internal/app/voice"
	"github.com/PabloGalante/ai-accountant/internal/domain"
	"github.com/PabloGalante/ai-accountant/internal/observability"
)

// followUpMinChars is the transcript length that ends a follow-up listen.
const followUpMinChars = 5

// ToggleMic advances the microphone state machine.
func (c *Controller) ToggleMic(ctx context.Context) error {
	supported := c.capture.Supported()
	ctx = context.WithoutCancel(ctx)

	return c.update(func(fx *effects) error {
		switch c.mic {
		case domain.MicListening, domain.MicListeningForFollowUp:
			c.mic = domain.MicIdle
			fx.add(c.capture.Stop)
			if t := strings.TrimSpace(c.transcript); c.coPilot && t != "" {
				c.input = t
				epoch := c.epoch
				fx.add(func() {
					c.clock.AfterFunc(c.opts.SettleDelay, func() {
						if err := c.submitTurnIn(ctx, epoch, t); err != nil {
							c.logger(ctx).Info("voice turn not submitted", "err", err)
						}
					})
				})
			}

		case domain.MicAnnouncing:
			c.mic = domain.MicIdle
			c.announceID++
			fx.add(c.output.Cancel)

		default:
			if !supported {
				return domain.ErrSpeechUnsupported
			}
			if c.coPilot {
				c.mic = domain.MicAnnouncing
				c.announceID++
				id, locale := c.announceID, c.language
				fx.add(func() {
					c.speak(locale, listeningAnnouncement, func() { c.onAnnouncementDone(id) })
				})
			} else {
				c.mic = domain.MicListening
				c.transcript = ""
				locale := c.language
				fx.add(func() { c.startCapture(locale) })
			}
		}
		return nil
	})
}

// SetCoPilot turns spoken replies and the hands-free follow-up loop on or off.
func (c *Controller) SetCoPilot(on bool) {
	_ = c.update(func(fx *effects) error {
		if c.coPilot == on {
			return errSkip
		}
		c.coPilot = on
		if on {
			locale := c.language
			fx.add(func() { c.speak(locale, activationAnnouncement, nil) })
			return nil
		}

		switch c.mic {
		case domain.MicListeningForFollowUp:
			c.mic = domain.MicListening
		case domain.MicAnnouncing:
			c.mic = domain.MicIdle
			c.announceID++
		}
		fx.add(c.output.Cancel)
		return nil
	})
}

// ToggleLanguage flips between English and Hindi and returns the new locale.
func (c *Controller) ToggleLanguage() domain.Locale {
	var next domain.Locale
	_ = c.update(func(fx *effects) error {
		c.language = c.language.Toggle()
		next = c.language
		return nil
	})
	return next
}

func (c *Controller) onAnnouncementDone(id uint64) {
	_ = c.update(func(fx *effects) error {
		if c.mic != domain.MicAnnouncing || c.announceID != id {
			return errSkip
		}
		c.mic = domain.MicListening
		c.transcript = ""
		locale := c.language
		fx.add(func() { c.startCapture(locale) })
		return nil
	})
}

// onReplySpoken starts the follow-up listen once a spoken reply finishes.
func (c *Controller) onReplySpoken(epoch uint64) {
	if !c.capture.Supported() {
		return
	}
	_ = c.update(func(fx *effects) error {
		if epoch != c.epoch || !c.coPilot || c.mic != domain.MicIdle {
			return errSkip
		}
		c.mic = domain.MicListeningForFollowUp
		c.transcript = ""
		locale := c.language
		fx.add(func() { c.startCapture(locale) })
		return nil
	})
}

func (c *Controller) handleTranscript(text string) {
	_ = c.update(func(fx *effects) error {
		if !c.mic.Listening() {
			return errSkip
		}
		c.transcript = text
		c.input = text

		t := strings.TrimSpace(text)
		if c.mic == domain.MicListeningForFollowUp && utf8.RuneCountInString(t) > followUpMinChars {
			c.mic = domain.MicIdle
			epoch := c.epoch
			fx.add(c.capture.Stop)
			fx.add(func() {
				if err := c.submitTurnIn(context.Background(), epoch, t); err != nil {
					c.logger(context.Background()).Info("follow-up turn not submitted", "err", err)
				}
			})
		}
		return nil
	})
}

func (c *Controller) startCapture(locale domain.Locale) {
	err := c.capture.Start(locale)
	if err == nil {
		return
	}

	c.logger(context.Background()).Warn("speech capture failed to start", "locale", locale, "err", err)
	_ = c.update(func(fx *effects) error {
		if !c.mic.Listening() {
			return errSkip
		}
		c.mic = domain.MicIdle
		c.showToastLocked(captureToast, domain.SeverityWarning)
		return nil
	})
}

// speak cancels whatever is playing and speaks text normalised for the engine.
func (c *Controller) speak(locale domain.Locale, text string, onComplete func()) {
	if onComplete == nil {
		onComplete = func() {}
	}
	if c.output.Speaking() {
		c.output.Cancel()
	}
	u := voice.NewUtterance(newID(), voice.NormalizeForSpeech(text, c.rnd), locale, c.output.Voices())
	c.output.Speak(u, onComplete)
}

func (c *Controller) showToastLocked(message string, severity domain.Severity) {
	if c.toastTimer != nil {
		c.toastTimer.Stop()
	}
	c.toastGen++
	gen := c.toastGen
	c.toast = domain.Toast{Message: message, Severity: severity, Visible: true}
	c.toastTimer = c.clock.AfterFunc(c.opts.ToastTTL, func() { c.expireToast(gen) })
	observability.Toasts.WithLabelValues(string(severity)).Inc()
}

func (c *Controller) hideToastLocked() {
	if c.toastTimer != nil {
		c.toastTimer.Stop()
		c.toastTimer = nil
	}
	c.toastGen++
	c.toast.Visible = false
}

func (c *Controller) expireToast(gen uint64) {
	_ = c.update(func(fx *effects) error {
		if gen != c.toastGen || !c.toast.Visible {
			return errSkip
		}
		c.toast.Visible = false
		c.toastTimer = nil
		return nil
	})
}
