package domain

import "time"

// CircleRole distinguishes the circle owner from regular members.
type CircleRole string

const (
	CircleOwner  CircleRole = "owner"
	CircleMember CircleRole = "member"
)

// CircleMemberStatus tracks a member's lifecycle inside a circle. Rows
// are never deleted while the circle exists; leaving, declining and
// kicks are status flips, so a returning member can be reactivated.
type CircleMemberStatus string

const (
	MemberActive   CircleMemberStatus = "active"
	MemberPending  CircleMemberStatus = "pending"
	MemberDeclined CircleMemberStatus = "declined"
	MemberLeft     CircleMemberStatus = "left"
	MemberRemoved  CircleMemberStatus = "removed"
)

// DefaultCircleMaxMembers caps the active member count of a circle.
const DefaultCircleMaxMembers = 10

// CircleSettings is the per-circle configuration block.
type CircleSettings struct {
	MaxMembers           int  `json:"maxMembers"`
	IsPrivate            bool `json:"isPrivate"`
	ShowRealTimeProgress bool `json:"showRealTimeProgress"`
}

// Member is one user's membership record in a circle. Identity fields
// are projected from the user snapshot at read time.
type Member struct {
	UserID   int64              `json:"userId"`
	Username string             `json:"username"`
	Name     string             `json:"name"`
	PhotoURL string             `json:"photoUrl"`
	Role     CircleRole         `json:"role"`
	Status   CircleMemberStatus `json:"status"`
	JoinedAt time.Time          `json:"joinedAt"`
}

// Circle is a small accountability group: one owner, up to MaxMembers
// active members, joined by invite or by code.
type Circle struct {
	CircleID    string         `json:"circleId"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	OwnerID     int64          `json:"ownerId"`
	InviteCode  string         `json:"inviteCode"`
	Members     []Member       `json:"members"`
	Settings    CircleSettings `json:"settings"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// FindMember returns the membership record for the given user, in any
// status.
func (c *Circle) FindMember(userID int64) (*Member, bool) {
	for i := range c.Members {
		if c.Members[i].UserID == userID {
			return &c.Members[i], true
		}
	}
	return nil, false
}

// ActiveMemberCount counts members with active status.
func (c *Circle) ActiveMemberCount() int {
	n := 0
	for _, m := range c.Members {
		if m.Status == MemberActive {
			n++
		}
	}
	return n
}

// IsFull reports whether the circle reached its active member cap.
func (c *Circle) IsFull() bool {
	return c.ActiveMemberCount() >= c.Settings.MaxMembers
}

// TodayProgress summarizes one member's completion of the shared daily
// task list.
type TodayProgress struct {
	Percent   int      `json:"percent"`
	Completed int      `json:"completed"`
	Total     int      `json:"total"`
	Tasks     DayFlags `json:"tasks"`
}

// MemberProgress is a member enriched with live gamification state for
// the circle details view.
type MemberProgress struct {
	UserID        int64         `json:"userId"`
	Username      string        `json:"username"`
	Name          string        `json:"name"`
	PhotoURL      string        `json:"photoUrl"`
	Role          CircleRole    `json:"role"`
	XP            int           `json:"xp"`
	CurrentStreak int           `json:"currentStreak"`
	TodayProgress TodayProgress `json:"todayProgress"`
}

// CircleDetails is the circle plus per-member progress for today.
type CircleDetails struct {
	Circle
	MembersWithProgress []MemberProgress `json:"membersWithProgress"`
}
