package sanitize

import "strings"

// Generic failure messages, selected by best-effort detection of the
// question's language. Script-range checks for Arabic and Chinese, keyword
// heuristics for Spanish and French, English as the default.
const (
	messageArabic  = "عذراً، لم أتمكن من العثور على البيانات المطلوبة. يرجى المحاولة بسؤال مختلف أو التحقق من المعلومات المدخلة."
	messageChinese = "抱歉，无法找到您请求的数据。请尝试不同的问题或检查输入信息。"
	messageSpanish = "Lo siento, no pude encontrar los datos solicitados. Por favor, intente con una pregunta diferente."
	messageFrench  = "Désolé, je n'ai pas pu trouver les données demandées. Veuillez essayer avec une question différente."
	messageEnglish = "Sorry, I couldn't find the information you requested. Please try asking in a different way or check your query."
)

func genericMessage(question string) string {
	switch {
	case containsArabic(question):
		return messageArabic
	case containsChinese(question):
		return messageChinese
	case containsAny(question, spanishMarkers):
		return messageSpanish
	case containsAny(question, frenchMarkers):
		return messageFrench
	default:
		return messageEnglish
	}
}

var spanishMarkers = []string{"qué", "cuál", "cómo", "muéstrame", "dame"}

var frenchMarkers = []string{"montre", "donne", "quel", "quelle", "combien"}

func containsArabic(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

func containsChinese(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

func containsAny(s string, markers []string) bool {
	lower := strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
