package models

import "encoding/json"

// Envelope is the top-level document of a CloudTrail log object.
// Records is a pointer so a payload without the field can be told apart
// from one carrying an empty array.
type Envelope struct {
	Records *[]Record `json:"Records"`
}

// Record represents a single CloudTrail event.
// requestParameters and responseElements vary per API call, so they are kept
// raw and only decoded for records that are mapped into rows.
type Record struct {
	EventVersion      string          `json:"eventVersion"`
	EventSource       string          `json:"eventSource"`
	EventName         string          `json:"eventName"`
	EventTime         string          `json:"eventTime"`
	AWSRegion         string          `json:"awsRegion"`
	EventID           string          `json:"eventID"`
	ErrorCode         string          `json:"errorCode,omitempty"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`
	UserIdentity      *UserIdentity   `json:"userIdentity,omitempty"`
	RequestParameters json.RawMessage `json:"requestParameters,omitempty"`
	ResponseElements  json.RawMessage `json:"responseElements,omitempty"`
}

// UserIdentity identifies the principal that made the call
type UserIdentity struct {
	Type        string `json:"type"`
	PrincipalID string `json:"principalId"`
	ARN         string `json:"arn"`
	AccountID   string `json:"accountId"`
	InvokedBy   string `json:"invokedBy,omitempty"`
}

// CreateImageRequest holds the requestParameters of an ec2:CreateImage call
type CreateImageRequest struct {
	InstanceID string `json:"instanceId"`
	Name       string `json:"name,omitempty"`
}

// CreateImageResponse holds the responseElements of an ec2:CreateImage call
type CreateImageResponse struct {
	ImageID string `json:"imageId"`
}

// ImageCreation is the flattened, validated view of a CreateImage record.
// An empty string counts as missing.
type ImageCreation struct {
	AccountID   string `validate:"required"`
	PrincipalID string `validate:"required"`
	EventTime   string `validate:"required"`
	ImageID     string `validate:"required"`
	InstanceID  string `validate:"required"`
}

// Failed reports whether CloudTrail logged the call as unsuccessful
func (r Record) Failed() bool {
	return r.ErrorCode != ""
}
