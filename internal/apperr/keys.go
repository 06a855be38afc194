package apperr

// Ключи сообщений, которые переводятся пакетом i18n
const (
	KeyInternal              = "common.internal_error"
	KeyInvalidRequest        = "common.invalid_request"
	KeyUnauthorized          = "auth.unauthorized"
	KeyInvalidToken          = "auth.invalid_token"
	KeyInvalidUserID         = "auth.invalid_user_id"
	KeyInvalidTelegramData   = "auth.invalid_telegram_data"
	KeyPropertyNotFound      = "property.not_found"
	KeyConversationNotFound  = "conversation.not_found"
	KeyConversationForbidden = "conversation.forbidden"
	KeyConversationExists    = "conversation.already_exists"
	KeyOwnProperty           = "conversation.own_property"
	KeySellerMismatch        = "conversation.seller_mismatch"
	KeyInvalidConversationID = "conversation.invalid_id"
	KeyMessagesMarkedRead    = "message.marked_as_read"
	KeyInvalidMessageType    = "message.invalid_type"
	KeyEmptyContent          = "message.empty_content"
	KeyContentTooLong        = "message.content_too_long"
	KeyImageURLRequired      = "message.image_url_required"
	KeyCannotJoin            = "socket.cannot_join"
	KeySendFailed            = "socket.send_failed"
)
