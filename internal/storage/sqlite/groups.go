package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billsplit/billsplit/internal/models"
	"github.com/billsplit/billsplit/internal/storage"
)

// CreateGroup persists a new group.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	var imageURL interface{}
	if group.ImageURL != "" {
		imageURL = group.ImageURL
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, image_url, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		group.ID, group.Name, imageURL, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by id.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var imageURL sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, image_url, created_by, created_at FROM groups WHERE id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &imageURL, &group.CreatedBy, &group.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if imageURL.Valid {
		group.ImageURL = imageURL.String
	}
	return group, nil
}

// UpdateGroup updates a group's name and image.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	var imageURL interface{}
	if group.ImageURL != "" {
		imageURL = group.ImageURL
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ?, image_url = ? WHERE id = ?`,
		group.Name, imageURL, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	return nil
}

// ListGroupsForUser retrieves every group the user belongs to, newest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID int64) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.image_url, g.created_by, g.created_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ?
		 ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups for user: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		var imageURL sql.NullString
		if err := rows.Scan(&group.ID, &group.Name, &imageURL, &group.CreatedBy, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		if imageURL.Valid {
			group.ImageURL = imageURL.String
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// AddGroupMember adds a registered user to a group.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, member *models.GroupMember) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().Unix()
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		member.GroupID, member.UserID, string(member.Role), member.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// GetGroupMember retrieves one membership with its user record loaded.
func (s *SQLiteStore) GetGroupMember(ctx context.Context, groupID string, userID int64) (*models.GroupMember, error) {
	member := &models.GroupMember{User: &models.User{}}
	var role string

	err := s.db.QueryRowContext(ctx,
		`SELECT gm.group_id, gm.user_id, gm.role, gm.joined_at,
		        u.id, u.email, u.name, u.created_at, u.updated_at
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = ? AND gm.user_id = ?`,
		groupID, userID,
	).Scan(&member.GroupID, &member.UserID, &role, &member.JoinedAt,
		&member.User.ID, &member.User.Email, &member.User.Name,
		&member.User.CreatedAt, &member.User.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("member %d in group %s: %w", userID, groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group member: %w", err)
	}

	member.Role = models.GroupRole(role)
	return member, nil
}

// ListGroupMembers retrieves a group's memberships with user records loaded.
func (s *SQLiteStore) ListGroupMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gm.group_id, gm.user_id, gm.role, gm.joined_at,
		        u.id, u.email, u.name, u.created_at, u.updated_at
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = ?
		 ORDER BY gm.joined_at, gm.user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		member := &models.GroupMember{User: &models.User{}}
		var role string
		if err := rows.Scan(&member.GroupID, &member.UserID, &role, &member.JoinedAt,
			&member.User.ID, &member.User.Email, &member.User.Name,
			&member.User.CreatedAt, &member.User.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		member.Role = models.GroupRole(role)
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

// RemoveGroupMember removes a registered user from a group.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID string, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("member %d in group %s: %w", userID, groupID, storage.ErrNotFound)
	}
	return nil
}

// CreatePendingMember records an invited-but-unregistered member.
func (s *SQLiteStore) CreatePendingMember(ctx context.Context, pending *models.PendingMember) error {
	if pending.InvitedAt == 0 {
		pending.InvitedAt = time.Now().Unix()
	}

	var name interface{}
	if pending.Name != "" {
		name = pending.Name
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_members (group_id, email, name, invited_by, invited_at)
		 VALUES (?, ?, ?, ?, ?)`,
		pending.GroupID, pending.Email, name, pending.InvitedBy, pending.InvitedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pending member: %w", err)
	}
	return nil
}

// ListPendingMembers retrieves a group's pending members in invite order.
func (s *SQLiteStore) ListPendingMembers(ctx context.Context, groupID string) ([]*models.PendingMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, email, name, invited_by, invited_at
		 FROM pending_members WHERE group_id = ?
		 ORDER BY invited_at, email`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending members: %w", err)
	}
	defer rows.Close()

	return scanPendingMembers(rows)
}

// ListPendingInvitesByEmail retrieves pending memberships across groups.
func (s *SQLiteStore) ListPendingInvitesByEmail(ctx context.Context, email string) ([]*models.PendingMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, email, name, invited_by, invited_at
		 FROM pending_members WHERE email = ?`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invites: %w", err)
	}
	defer rows.Close()

	return scanPendingMembers(rows)
}

// DeletePendingMember removes a pending membership.
func (s *SQLiteStore) DeletePendingMember(ctx context.Context, groupID, email string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_members WHERE group_id = ? AND email = ?`,
		groupID, email,
	)
	if err != nil {
		return fmt.Errorf("failed to delete pending member: %w", err)
	}
	return nil
}

func scanPendingMembers(rows *sql.Rows) ([]*models.PendingMember, error) {
	var pendings []*models.PendingMember
	for rows.Next() {
		pending := &models.PendingMember{}
		var name sql.NullString
		if err := rows.Scan(&pending.GroupID, &pending.Email, &name, &pending.InvitedBy, &pending.InvitedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending member: %w", err)
		}
		if name.Valid {
			pending.Name = name.String
		}
		pendings = append(pendings, pending)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending members: %w", err)
	}
	return pendings, nil
}
