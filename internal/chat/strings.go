package chat

// Fixed user-facing strings per language. The chat surface never exposes a
// raw error; every failure mode degrades to one of these.
var notConfiguredMessages = map[string]string{
	"ru": "База знаний ещё не настроена. Загрузите документ, и я смогу отвечать на вопросы.",
	"en": "The knowledge base is not set up yet. Upload a document and I will be able to answer questions.",
	"pt": "A base de conhecimento ainda não foi configurada. Envie um documento e poderei responder às perguntas.",
}

var connectionErrorMessages = map[string]string{
	"ru": "Не получилось связаться с сервисом ответов. Пожалуйста, попробуйте ещё раз чуть позже.",
	"en": "I could not reach the answering service. Please try again in a moment.",
	"pt": "Não consegui acessar o serviço de respostas. Tente novamente em instantes.",
}

// localized picks the message for lang, falling back to English.
func localized(messages map[string]string, lang string) string {
	if msg, ok := messages[lang]; ok {
		return msg
	}
	return messages["en"]
}
