package dto

import "strings"

type CreateTeamRequest struct {
	Name string `json:"name"`
}

func (r CreateTeamRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "Team name is required"
	}

	return errors
}

type JoinTeamRequest struct {
	InviteCode string `json:"invite_code"`
}

func (r JoinTeamRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.InviteCode == "" {
		errors["invite_code"] = "Invite code is required"
	}

	return errors
}

type CleanupRequest struct {
	ThresholdMinutes int `json:"threshold_minutes,omitempty"`
}
