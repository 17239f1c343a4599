package dto

type CallTokenRequest struct {
	UserId   string `json:"user_id" validate:"required"`
	RoomName string `json:"room_name"`
}

type CallTokenResponse struct {
	Token    string `json:"token"`
	RoomName string `json:"room_name"`
	WsUrl    string `json:"ws_url"`
}

type CallStatusResponse struct {
	Status        string `json:"status"`
	ActiveClients int    `json:"active_clients"`
}
