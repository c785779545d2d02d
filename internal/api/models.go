package api

// Platform is reported with every device token.
const Platform = "ios"

type storeDeviceTokenRequest struct {
	DevicePushToken string `json:"devicePushToken"`
	Platform        string `json:"platform"`
}

type chatPropertyMetadataRequest struct {
	VisitorToken *string           `json:"visitorToken,omitempty"`
	Email        *string           `json:"email,omitempty"`
	Metadata     map[string]string `json:"metadata"`
}

type createVisitorTokenRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type createVisitorTokenResponse struct {
	Token string `json:"token"`
}

// VisitorTokenRequest identifies the visitor a token is created for.
type VisitorTokenRequest struct {
	AccessToken string
	Email       string
	FirstName   string
	LastName    string
}

// ChatPropertiesRequest is the metadata sent once a thread id is known.
type ChatPropertiesRequest struct {
	PortalID     string
	ThreadID     string
	VisitorToken string
	Email        string
	Properties   map[string]string
}
