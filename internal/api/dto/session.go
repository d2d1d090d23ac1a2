package dto

import "strings"

type InitializeSessionRequest struct {
	Token       string `json:"token,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type UpdateDisplayNameRequest struct {
	DisplayName string `json:"display_name"`
}

func (r UpdateDisplayNameRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.DisplayName) == "" {
		errors["display_name"] = "Display name is required"
	}

	return errors
}

type SessionJoinTeamRequest struct {
	TeamID string `json:"team_id"`
}

func (r SessionJoinTeamRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.TeamID == "" {
		errors["team_id"] = "Team ID is required"
	}

	return errors
}
