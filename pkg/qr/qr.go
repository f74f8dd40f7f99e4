package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// ApprovalToken is the scannable payload attached to a return when it is
// approved. It is generated exactly once, inside the approval transition.
type ApprovalToken struct {
	ReturnID        string    `json:"return_id"`
	RequesterID     string    `json:"requester_id"`
	Timestamp       time.Time `json:"timestamp"`
	Status          string    `json:"status"`
	ReturnMethod    string    `json:"return_method"`
	DropboxLocation string    `json:"dropbox_location,omitempty"`
	ApprovedBy      string    `json:"approved_by"`
	ApprovedAt      time.Time `json:"approved_at"`
}

// EncodeApprovalToken renders the token as a PNG data URL suitable for
// embedding directly in a client response.
func EncodeApprovalToken(token ApprovalToken) (string, error) {
	payload, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("marshal approval token: %w", err)
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
