// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package globus

// submissionIDResponse is returned by GET /submission_id
type submissionIDResponse struct {
	Value string `json:"value"`
}

// transferItem is one DATA entry of a transfer document
type transferItem struct {
	DataType        string `json:"DATA_TYPE"`
	SourcePath      string `json:"source_path"`
	DestinationPath string `json:"destination_path"`
}

// transferDocument is the body of POST /transfer
type transferDocument struct {
	DataType            string         `json:"DATA_TYPE"`
	SubmissionID        string         `json:"submission_id"`
	SourceEndpoint      string         `json:"source_endpoint"`
	DestinationEndpoint string         `json:"destination_endpoint"`
	Deadline            string         `json:"deadline"`
	Label               string         `json:"label,omitempty"`
	Data                []transferItem `json:"DATA"`
}

// transferResult is the body answered to an accepted transfer
type transferResult struct {
	TaskID       string `json:"task_id"`
	SubmissionID string `json:"submission_id"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	RequestID    string `json:"request_id"`
}

// apiError is the error document of the Transfer API
type apiError struct {
	Code           string   `json:"code"`
	Message        string   `json:"message"`
	RequestID      string   `json:"request_id"`
	RequiredScopes []string `json:"required_scopes"`
	// newer responses nest the scopes under authorization_parameters
	AuthorizationParameters struct {
		RequiredScopes []string `json:"required_scopes"`
	} `json:"authorization_parameters"`
}

// scopes returns the consent scopes named by the error, wherever they are
func (e apiError) scopes() []string {
	if len(e.RequiredScopes) > 0 {
		return e.RequiredScopes
	}
	return e.AuthorizationParameters.RequiredScopes
}

// otherToken is one entry of the other_tokens list of a Globus Auth token response
type otherToken struct {
	ResourceServer string
	AccessToken    string
	RefreshToken   string
	ExpiresIn      float64
}
