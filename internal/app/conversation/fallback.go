package conversation

import (
	"strings"

	"github.com/PabloGalante/ai-accountant/internal/domain"
)

// Topic is the keyword category of a user question, used to pick a fallback body.
type Topic string

const (
	TopicRevenue     Topic = "revenue"
	TopicExpense     Topic = "expense"
	TopicForecast    Topic = "forecast"
	TopicGeneric     Topic = "generic"
	TopicUnspecified Topic = "none"
)

const (
	listeningAnnouncement  = "I'm listening now. How can I assist with your financial data analysis?"
	activationAnnouncement = "Voice assistant activated. I'll provide detailed spoken responses to help you analyze financial data."

	backendToast    = "AI service temporarily unavailable. Using fallback response."
	unexpectedToast = "An unexpected error occurred. Please try again."
	captureToast    = "Voice input is unavailable right now."
)

const quotaPreamble = "🚨 **API Quota Exceeded**\n\nI've reached the daily limit for the Gemini AI service. This is a temporary limitation of the free tier.\n\n**In the meantime, I can still help you with:**\n- General financial advice and best practices\n- Explaining financial concepts\n- Providing sample analyses and reports\n- Guidance on data organization\n\n**Fallback Response for your query:**\n\n"

var topicSections = map[Topic]string{
	TopicRevenue:  "📊 **Revenue Analysis**\n\nBased on your query about revenue, here are key insights to consider:\n\n- **Trend Analysis**: Look for seasonal patterns in your revenue data\n- **Growth Rate**: Calculate month-over-month and year-over-year growth\n- **Revenue Sources**: Identify your top revenue streams and their contribution percentages\n- **Forecasting**: Use historical data to project future revenue trends\n\nFor detailed analysis, please try again later when the API quota resets.",
	TopicExpense:  "💰 **Expense Analysis**\n\nFor expense-related queries, consider these approaches:\n\n- **Categorization**: Group expenses into fixed vs. variable costs\n- **Budget Variance**: Compare actual vs. budgeted expenses\n- **Cost Optimization**: Identify areas where costs can be reduced\n- **ROI Analysis**: Evaluate which expenses generate the best returns\n\nI can provide more specific guidance once the API service is available again.",
	TopicForecast: "🔮 **Financial Forecasting**\n\nFor forecasting and predictions:\n\n- **Historical Trends**: Analyze past 12-24 months of data\n- **Seasonal Adjustments**: Account for recurring seasonal patterns\n- **Market Conditions**: Consider external economic factors\n- **Multiple Scenarios**: Create best-case, worst-case, and realistic projections\n\nOnce the AI service is restored, I can provide detailed predictive models.",
	TopicGeneric:  "🤖 **General Financial Guidance**\n\nWhile I wait for the AI service to restore, here are some general best practices:\n\n- **Data Quality**: Ensure your financial data is accurate and up-to-date\n- **Regular Reviews**: Conduct monthly financial reviews\n- **Key Metrics**: Monitor cash flow, profit margins, and growth rates\n- **Documentation**: Maintain detailed records for all transactions\n\nPlease try your question again in about an hour when the quota resets.",
}

const networkFallback = "🌐 **Network Connection Issue**\n\nI'm having trouble connecting to the AI service. This could be due to:\n- Network connectivity issues\n- Temporary server maintenance\n- Firewall restrictions\n\nPlease check your internet connection and try again in a few moments."

const technicalFallback = "⚠️ **Technical Difficulty**\n\nI encountered an unexpected error while processing your request. This could be due to:\n- API service maintenance\n- Rate limiting\n- Configuration issues\n\nPlease try rephrasing your question or contact support if the issue persists."

const unexpectedFallback = "❌ **Unexpected Error**\n\nI encountered an unexpected error while processing your request. This is likely a temporary issue.\n\n**Please try:**\n- Refreshing the page\n- Rephrasing your question\n- Checking your internet connection\n\nIf the problem persists, please contact technical support with the error details."

// SetupRequiredMessage is appended when no backend credential is configured.
const SetupRequiredMessage = "🔧 **Setup Required**\n\nI'm ready to help with your financial analysis! However, the AI service is not fully configured.\n\n**To enable full AI functionality:**\n1. Set up a Gemini API key in your environment\n2. Add `ACCOUNTANT_GEMINI_API_KEY` (or a comma-separated `ACCOUNTANT_GEMINI_API_KEYS`) to your `.env` file\n3. Restart the service\n\n**In the meantime, I can provide:**\n- General financial guidance\n- Best practices for data analysis\n- Sample reports and templates\n- Financial planning frameworks\n\nContact your administrator for API setup assistance."

// ClassifyTopic matches the user's original question against the fallback keywords.
func ClassifyTopic(userText string) Topic {
	lower := strings.ToLower(userText)
	switch {
	case strings.Contains(lower, "revenue") || strings.Contains(lower, "income"):
		return TopicRevenue
	case strings.Contains(lower, "expense") || strings.Contains(lower, "cost"):
		return TopicExpense
	case strings.Contains(lower, "forecast") || strings.Contains(lower, "predict"):
		return TopicForecast
	default:
		return TopicGeneric
	}
}

// FallbackMessage returns the body appended in place of a reply for a failed
// backend call, and the topic it was matched on.
func FallbackMessage(kind domain.BackendErrorKind, userText string) (string, Topic) {
	switch kind {
	case domain.KindQuotaExceeded:
		topic := ClassifyTopic(userText)
		return quotaPreamble + topicSections[topic], topic
	case domain.KindNetwork:
		return networkFallback, TopicUnspecified
	default:
		return technicalFallback, TopicUnspecified
	}
}
