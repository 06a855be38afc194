package i18n

var ru = map[string]string{
	"common.internal_error":        "Внутренняя ошибка сервера",
	"common.invalid_request":       "Неверный формат данных",
	"auth.unauthorized":            "Пользователь не авторизован",
	"auth.invalid_token":           "Недействительный или просроченный токен",
	"auth.invalid_user_id":         "Неверный формат ID пользователя",
	"auth.invalid_telegram_data":   "Недействительные данные Telegram",
	"property.not_found":           "Объект недвижимости не найден",
	"conversation.not_found":       "Диалог не найден",
	"conversation.forbidden":       "У вас нет доступа к этому диалогу",
	"conversation.already_exists":  "Диалог по этому объекту уже существует",
	"conversation.own_property":    "Нельзя написать по собственному объявлению",
	"conversation.seller_mismatch": "Указанный продавец не является владельцем объекта",
	"conversation.invalid_id":      "Неверный формат ID диалога",
	"message.marked_as_read":       "Сообщения отмечены как прочитанные",
	"message.invalid_type":         "Неизвестный тип сообщения",
	"message.empty_content":        "Текст сообщения не может быть пустым",
	"message.content_too_long":     "Сообщение слишком длинное",
	"message.image_url_required":   "Для изображения требуется ссылка",
	"socket.cannot_join":           "Не удалось подключиться к диалогу",
	"socket.send_failed":           "Не удалось отправить сообщение",
}

var en = map[string]string{
	"common.internal_error":        "Internal server error",
	"common.invalid_request":       "Invalid request body",
	"auth.unauthorized":            "Unauthorized",
	"auth.invalid_token":           "Invalid or expired token",
	"auth.invalid_user_id":         "Invalid user ID",
	"auth.invalid_telegram_data":   "Invalid Telegram data",
	"property.not_found":           "Property not found",
	"conversation.not_found":       "Conversation not found",
	"conversation.forbidden":       "You do not have access to this conversation",
	"conversation.already_exists":  "Conversation already exists for this property",
	"conversation.own_property":    "You cannot message your own property",
	"conversation.seller_mismatch": "Seller does not own this property",
	"conversation.invalid_id":      "Invalid conversation ID",
	"message.marked_as_read":       "Messages marked as read",
	"message.invalid_type":         "Unknown message type",
	"message.empty_content":        "Message content cannot be empty",
	"message.content_too_long":     "Message is too long",
	"message.image_url_required":   "Image messages require an image URL",
	"socket.cannot_join":           "Cannot join conversation",
	"socket.send_failed":           "Failed to send message",
}
