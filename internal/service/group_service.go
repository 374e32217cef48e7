package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/notify"
	"github.com/billsplit/billsplit/internal/storage"
)

// GroupService handles group lifecycle and membership.
type GroupService struct {
	store    storage.Store
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(store storage.Store, notifier notify.Notifier, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, notifier: notifier, logger: logger}
}

// GroupDetail is a group with its full roster.
type GroupDetail struct {
	Group   *models.Group
	Members []*models.GroupMember
	Pending []*models.PendingMember
}

// CreateGroup creates a group with the creator as its first admin.
// memberEmails are invited immediately: existing users join as members,
// unknown emails become pending members.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID int64, name, imageURL string, memberEmails []string) (*GroupDetail, error) {
	s.logger.Info("CreateGroup request", "name", name, "creator_id", creatorID, "invites", len(memberEmails))

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}

	group := &models.Group{
		Name:      strings.TrimSpace(name),
		ImageURL:  imageURL,
		CreatedBy: creatorID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	admin := &models.GroupMember{
		GroupID: group.ID,
		UserID:  creatorID,
		Role:    models.RoleAdmin,
	}
	if err := s.store.AddGroupMember(ctx, admin); err != nil {
		s.logger.Error("Failed to add group creator", "group_id", group.ID, "error", err)
		return nil, err
	}

	for _, email := range memberEmails {
		if _, err := s.inviteEmail(ctx, group, creatorID, email); err != nil {
			s.logger.Warn("Invite during group creation failed",
				"group_id", group.ID, "email", email, "error", err)
		}
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return s.GetGroup(ctx, group.ID, creatorID)
}

// GetGroup retrieves a group with its roster. The caller must be a member.
func (s *GroupService) GetGroup(ctx context.Context, groupID string, userID int64) (*GroupDetail, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.store.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.ListPendingMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &GroupDetail{Group: group, Members: members, Pending: pending}, nil
}

// ListGroups retrieves every group the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID int64) ([]*models.Group, error) {
	return s.store.ListGroupsForUser(ctx, userID)
}

// UpdateGroup updates a group's name and image. The caller must be a member.
func (s *GroupService) UpdateGroup(ctx context.Context, groupID string, userID int64, name, imageURL string) (*models.Group, error) {
	s.logger.Info("UpdateGroup request", "group_id", groupID, "user_id", userID)

	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Name = strings.TrimSpace(name)
	group.ImageURL = imageURL

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		s.logger.Error("UpdateGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}
	return group, nil
}

// InviteMember adds a person to the group by email. A registered user
// joins immediately; an unknown email becomes a pending member who can
// already owe and be owed money.
func (s *GroupService) InviteMember(ctx context.Context, groupID string, inviterID int64, email string) (*GroupDetail, error) {
	s.logger.Info("InviteMember request", "group_id", groupID, "inviter_id", inviterID)

	if err := s.requireMember(ctx, groupID, inviterID); err != nil {
		return nil, err
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if _, err := s.inviteEmail(ctx, group, inviterID, email); err != nil {
		return nil, err
	}
	return s.GetGroup(ctx, groupID, inviterID)
}

// RemoveMember removes a registered member. Admins can remove anyone;
// regular members can only remove themselves.
func (s *GroupService) RemoveMember(ctx context.Context, groupID string, actorID, targetID int64) error {
	s.logger.Info("RemoveMember request", "group_id", groupID, "actor_id", actorID, "target_id", targetID)

	actor, err := s.store.GetGroupMember(ctx, groupID, actorID)
	if err != nil {
		return ErrNotMember
	}
	if actorID != targetID && actor.Role != models.RoleAdmin {
		return ErrForbidden
	}

	return s.store.RemoveGroupMember(ctx, groupID, targetID)
}

// RemovePendingMember removes a pending invite. Any member may do this.
func (s *GroupService) RemovePendingMember(ctx context.Context, groupID string, actorID int64, email string) error {
	if err := s.requireMember(ctx, groupID, actorID); err != nil {
		return err
	}
	return s.store.DeletePendingMember(ctx, groupID, normalizeEmail(email))
}

func (s *GroupService) inviteEmail(ctx context.Context, group *models.Group, inviterID int64, email string) (invitedUserID int64, err error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return 0, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, email)
	}

	inviter, err := s.store.GetUserByID(ctx, inviterID)
	if err != nil {
		return 0, err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	if user != nil {
		member := &models.GroupMember{
			GroupID:  group.ID,
			UserID:   user.ID,
			Role:     models.RoleMember,
			JoinedAt: time.Now().Unix(),
		}
		if err := s.store.AddGroupMember(ctx, member); err != nil {
			return 0, err
		}
		invitedUserID = user.ID
	} else {
		pending := &models.PendingMember{
			GroupID:   group.ID,
			Email:     email,
			Name:      NameFromEmail(email),
			InvitedBy: inviterID,
		}
		if err := s.store.CreatePendingMember(ctx, pending); err != nil {
			return 0, err
		}
	}

	// Notification failures never fail the invite.
	if err := s.notifier.GroupInvite(ctx, email, group.Name, inviter.Name); err != nil {
		s.logger.Warn("Invite notification failed", "email", email, "error", err)
	}
	return invitedUserID, nil
}

func (s *GroupService) requireMember(ctx context.Context, groupID string, userID int64) error {
	if _, err := s.store.GetGroupMember(ctx, groupID, userID); err != nil {
		return ErrNotMember
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
