package models

import "time"

// Follow is a directed edge: User receives Author's posts in the follow feed.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:uniq_follow_pair;index;check:chk_follows_not_self,user_id <> author_id" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:uniq_follow_pair;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Author User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowStatus is whether a viewer follows an author. Anonymous viewers have
// no follow relationships, so their status is FollowUnknown.
type FollowStatus int

const (
	FollowUnknown FollowStatus = iota
	FollowNotFollowing
	FollowFollowing
)

// Known reports whether the status was determined for an authenticated viewer.
func (s FollowStatus) Known() bool {
	return s != FollowUnknown
}

// Following reports whether the viewer follows the author.
func (s FollowStatus) Following() bool {
	return s == FollowFollowing
}

func (s FollowStatus) String() string {
	switch s {
	case FollowFollowing:
		return "following"
	case FollowNotFollowing:
		return "not_following"
	default:
		return "unknown"
	}
}
