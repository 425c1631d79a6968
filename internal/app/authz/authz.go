// Package authz holds the authorization rules for listings and accounts.
// Every check reads the acting user's session snapshot and, for listings,
// the owner id stored on the record.
package authz

import (
	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
)

var errNotAuthenticated = common.Unauthorized("authentication required")

func IsAuthenticated(u *model.SessionUser) bool {
	return u != nil && u.ID != ""
}

func IsOwner(u *model.SessionUser) bool {
	return IsAuthenticated(u) && u.Role == model.RoleOwner
}

func IsResourceOwnerOrModerator(u *model.SessionUser, ownerID string) bool {
	return IsAuthenticated(u) && (u.IsModerator || u.ID == ownerID)
}

func CanCreateProperty(u *model.SessionUser) error {
	if !IsAuthenticated(u) {
		return errNotAuthenticated
	}
	if !IsOwner(u) {
		return common.Forbidden("only owner accounts can publish listings")
	}
	return nil
}

// CanModifyProperty covers update, delete and image removal.
func CanModifyProperty(u *model.SessionUser, p *model.Property) error {
	if !IsAuthenticated(u) {
		return errNotAuthenticated
	}
	if !IsResourceOwnerOrModerator(u, p.OwnerID) {
		return common.Forbidden("you can only modify your own listings")
	}
	return nil
}

// CanManageAccount is self-service only; moderators get no override.
func CanManageAccount(u *model.SessionUser, targetUserID string) error {
	if !IsAuthenticated(u) {
		return errNotAuthenticated
	}
	if u.ID != targetUserID {
		return common.Forbidden("you can only change your own account")
	}
	return nil
}

func CanDeleteAccount(u *model.SessionUser, targetUserID string) error {
	if err := CanManageAccount(u, targetUserID); err != nil {
		return err
	}
	if u.IsModerator {
		return common.Forbidden("the moderator account cannot be deleted")
	}
	return nil
}
