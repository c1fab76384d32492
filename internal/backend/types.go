package backend

// Request and response bodies for the voice backend REST API. Field
// names follow the backend's snake_case wire format; token responses
// use the camelCase the media service emits.

// TokenRequest asks for a room token for a participant.
type TokenRequest struct {
	RoomName            string `json:"room_name"`
	ParticipantIdentity string `json:"participant_identity"`
}

// TokenResponse carries the room credentials.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	WsURL       string `json:"wsUrl"`
}

// CallerTokenRequest asks for the caller-side room token.
type CallerTokenRequest struct {
	RoomName                string `json:"room_name"`
	ParticipantIdentity     string `json:"participant_identity"`
	ParticipantIdentityName string `json:"participant_identity_name"`
	ParticipantIdentityType string `json:"participant_identity_type"`
	CallerUserID            string `json:"caller_user_id"`
}

// CalledTokenRequest asks for the callee-side room token.
type CalledTokenRequest struct {
	RoomName                string `json:"room_name"`
	ParticipantIdentity     string `json:"participant_identity"`
	ParticipantIdentityName string `json:"participant_identity_name"`
	ParticipantIdentityType string `json:"participant_identity_type"`
	CalledUserID            string `json:"called_user_id"`
}

// BridgeCallRequest starts a support call through the telephony bridge.
type BridgeCallRequest struct {
	PhoneNumber     string `json:"phone_number"`
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
}

// BridgeCallDetails identifies the bridged participant.
type BridgeCallDetails struct {
	ParticipantID       string `json:"participant_id"`
	ParticipantIdentity string `json:"participant_identity"`
	RoomName            string `json:"room_name"`
	PhoneNumber         string `json:"phone_number"`
}

// BridgeCallData is the payload of a successful bridge call.
type BridgeCallData struct {
	Success       bool              `json:"success"`
	CallDetails   BridgeCallDetails `json:"call_details"`
	RoomToken     string            `json:"room_token"`
	RoomName      string            `json:"room_name"`
	RoomSessionID string            `json:"room_session_id,omitempty"`
	WsURL         string            `json:"wsUrl,omitempty"`
}

// BridgeCallResponse is the make-call envelope.
type BridgeCallResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    *BridgeCallData `json:"data"`
	Error   string          `json:"error,omitempty"`
}

// EndBridgeCallRequest tears down a bridged support call.
type EndBridgeCallRequest struct {
	ParticipantIdentity string `json:"participant_identity"`
	RoomName            string `json:"room_name"`
}

// EndBridgeCallResponse is the end-call envelope.
type EndBridgeCallResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RandomUserResponse is a backend-assigned caller identity for drivers.
type RandomUserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// RandomLeadResponse is a backend-assigned caller identity for customers.
type RandomLeadResponse struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Status      string `json:"status"`
	UserID      string `json:"user_id"`
}

// RegisterPushTokenRequest registers a device push token.
type RegisterPushTokenRequest struct {
	UserType    string            `json:"user_type"`
	UserID      string            `json:"user_id"`
	DeviceToken string            `json:"device_token"`
	DeviceInfo  map[string]string `json:"device_info"`
	DeviceType  string            `json:"device_type"`
}

// UpdatePushTokenRequest rotates a device push token.
type UpdatePushTokenRequest struct {
	UserType       string            `json:"user_type"`
	UserID         string            `json:"user_id"`
	DeviceToken    string            `json:"device_token"`
	NewDeviceToken string            `json:"new_device_token"`
	DeviceInfo     map[string]string `json:"device_info"`
	DeviceType     string            `json:"device_type"`
}

// PushTokenResponse is the register/update envelope.
type PushTokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
