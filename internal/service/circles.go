package service

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"

	"go.uber.org/zap"
)

const circleIDPrefix = "CRL_"
const circleIDLength = 9

// circleTasks is the fixed daily task list the circle details view
// scores members against.
var circleTasks = []string{
	"fasting", "fajr", "duha", "dhuhr", "asr", "maghrib", "isha",
	"quranRead", "morningDhikr", "eveningDhikr",
}

// Circle operation failures surfaced to the caller.
var (
	ErrCircleNotFound      = errors.New("circle not found")
	ErrCircleExists        = errors.New("you already have an active circle")
	ErrCircleFull          = errors.New("circle is full")
	ErrInvalidInviteCode   = errors.New("invalid invite code")
	ErrNotCircleOwner      = errors.New("only the owner can do this")
	ErrNotCircleMember     = errors.New("you are not a member of this circle")
	ErrAlreadyCircleMember = errors.New("user is already a member or has a pending invite")
	ErrInviteNotFound      = errors.New("invite not found")
	ErrOwnerCannotLeave    = errors.New("owner cannot leave, delete the circle instead")
	ErrCannotRemoveSelf    = errors.New("owner cannot remove themselves")
	ErrUserNotFound        = errors.New("user not found")
)

// CircleService manages accountability circles: small groups whose
// members see each other's daily task completion.
type CircleService struct {
	users            repository.UserRepository
	circles          repository.CircleRepository
	ramadanStart     string
	preparationStart string
	loc              *time.Location
	logger           *zap.Logger
}

// NewCircleService creates a new circle service
func NewCircleService(
	users repository.UserRepository,
	circles repository.CircleRepository,
	ramadanStart, preparationStart string,
	loc *time.Location,
	logger *zap.Logger,
) *CircleService {
	return &CircleService{
		users:            users,
		circles:          circles,
		ramadanStart:     ramadanStart,
		preparationStart: preparationStart,
		loc:              loc,
		logger:           logger,
	}
}

// Create makes a new circle with the caller as its only active member.
// One active circle per owner.
func (s *CircleService) Create(ownerID int64, name, description string) (*domain.Circle, error) {
	owner, err := s.users.GetByID(ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	exists, err := s.circles.HasActiveCircle(ownerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCircleExists
	}

	now := time.Now()
	c := &domain.Circle{
		CircleID:    generateCircleID(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		InviteCode:  generatePromoCode(),
		Settings: domain.CircleSettings{
			MaxMembers:           domain.DefaultCircleMaxMembers,
			IsPrivate:            true,
			ShowRealTimeProgress: true,
		},
		Members: []domain.Member{{
			UserID:   ownerID,
			Username: owner.Username,
			Name:     owner.Name,
			PhotoURL: owner.PhotoURL,
			Role:     domain.CircleOwner,
			Status:   domain.MemberActive,
			JoinedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.circles.Create(c); err != nil {
		return nil, err
	}
	s.logger.Info("circle created",
		zap.String("circle_id", c.CircleID), zap.Int64("owner_id", ownerID))
	return c, nil
}

// UserCircles returns the circles where the user is an active or
// pending member.
func (s *CircleService) UserCircles(userID int64) ([]domain.Circle, error) {
	return s.circles.ListByMember(userID)
}

// Details returns the circle with each active member's completion of
// today's shared task list. Active and pending members may look, so an
// invitee can see the group before accepting.
func (s *CircleService) Details(circleID string, requesterID int64) (*domain.CircleDetails, error) {
	c, err := s.loadCircle(circleID)
	if err != nil {
		return nil, err
	}

	m, ok := c.FindMember(requesterID)
	if !ok || (m.Status != domain.MemberActive && m.Status != domain.MemberPending) {
		return nil, ErrNotCircleMember
	}

	return s.detailsFor(c, domain.Today(s.loc))
}

// detailsFor builds the per-member progress for the given calendar day.
func (s *CircleService) detailsFor(c *domain.Circle, today string) (*domain.CircleDetails, error) {
	dayKey, ramadan := s.todayKey(today)

	details := &domain.CircleDetails{Circle: *c}
	for _, m := range c.Members {
		if m.Status != domain.MemberActive {
			continue
		}
		u, err := s.users.GetByID(m.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}

		namespace := u.PreparationProgress
		if ramadan {
			namespace = u.Progress
		}
		flags := namespace[dayKey]
		if flags == nil {
			flags = domain.DayFlags{}
		}

		completed := 0
		for _, task := range circleTasks {
			if flags[task] {
				completed++
			}
		}

		details.MembersWithProgress = append(details.MembersWithProgress, domain.MemberProgress{
			UserID:        m.UserID,
			Username:      m.Username,
			Name:          m.Name,
			PhotoURL:      m.PhotoURL,
			Role:          m.Role,
			XP:            u.XP,
			CurrentStreak: u.CurrentStreak,
			TodayProgress: domain.TodayProgress{
				Percent:   completed * 100 / len(circleTasks),
				Completed: completed,
				Total:     len(circleTasks),
				Tasks:     flags,
			},
		})
	}
	return details, nil
}

// todayKey picks the progress namespace and "day_N" key for the given
// date: Ramadan days once the campaign started, preparation days before
// that, day_1 before the preparation window opens.
func (s *CircleService) todayKey(today string) (key string, ramadan bool) {
	if !domain.DateAfter(s.ramadanStart, today) {
		return domain.DayKey(clampDay(dayNumber(s.ramadanStart, today), 30)), true
	}
	if !domain.DateAfter(s.preparationStart, today) {
		return domain.DayKey(clampDay(dayNumber(s.preparationStart, today), 10)), false
	}
	return domain.DayKey(1), false
}

// InviteResult carries what the transport layer needs to notify the
// invited user.
type InviteResult struct {
	TargetUserID      int64
	CircleName        string
	CircleDescription string
	MemberCount       int
	InviterUsername   string
}

// Invite adds the named user as a pending member. Owner only. A
// previously removed user can be invited again.
func (s *CircleService) Invite(circleID string, inviterID int64, targetUsername string) (*InviteResult, error) {
	c, err := s.loadCircle(circleID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != inviterID {
		return nil, ErrNotCircleOwner
	}
	if c.IsFull() {
		return nil, ErrCircleFull
	}

	target, err := s.users.GetByUsername(strings.TrimPrefix(targetUsername, "@"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if m, ok := c.FindMember(target.UserID); ok && m.Status != domain.MemberRemoved {
		return nil, ErrAlreadyCircleMember
	}

	if err := s.circles.UpsertMember(c.CircleID, target.UserID, domain.CircleMember, domain.MemberPending); err != nil {
		return nil, err
	}

	inviterUsername := "Someone"
	if m, ok := c.FindMember(inviterID); ok && m.Username != "" {
		inviterUsername = m.Username
	}
	s.logger.Info("circle invite sent",
		zap.String("circle_id", c.CircleID), zap.Int64("target_user_id", target.UserID))

	return &InviteResult{
		TargetUserID:      target.UserID,
		CircleName:        c.Name,
		CircleDescription: c.Description,
		MemberCount:       c.ActiveMemberCount(),
		InviterUsername:   inviterUsername,
	}, nil
}

// Accept turns a pending invite into active membership and returns the
// updated circle.
func (s *CircleService) Accept(circleID string, userID int64) (*domain.Circle, error) {
	return s.resolveInvite(circleID, userID, domain.MemberActive)
}

// Decline marks a pending invite declined.
func (s *CircleService) Decline(circleID string, userID int64) error {
	_, err := s.resolveInvite(circleID, userID, domain.MemberDeclined)
	return err
}

func (s *CircleService) resolveInvite(circleID string, userID int64, to domain.CircleMemberStatus) (*domain.Circle, error) {
	c, err := s.loadCircle(circleID)
	if err != nil {
		return nil, err
	}
	m, ok := c.FindMember(userID)
	if !ok || m.Status != domain.MemberPending {
		return nil, ErrInviteNotFound
	}
	if err := s.circles.SetMemberStatus(circleID, userID, to); err != nil {
		return nil, err
	}
	m.Status = to
	return c, nil
}

// JoinByCode adds the user as an active member of the circle behind the
// code. Former members are reactivated regardless of the member cap.
func (s *CircleService) JoinByCode(code string, userID int64) (*domain.Circle, error) {
	c, err := s.circles.GetByInviteCode(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, err
	}

	if m, ok := c.FindMember(userID); ok {
		if m.Status == domain.MemberActive {
			return nil, ErrAlreadyCircleMember
		}
		if err := s.circles.SetMemberStatus(c.CircleID, userID, domain.MemberActive); err != nil {
			return nil, err
		}
		m.Status = domain.MemberActive
		return c, nil
	}

	if c.IsFull() {
		return nil, ErrCircleFull
	}
	u, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := s.circles.UpsertMember(c.CircleID, userID, domain.CircleMember, domain.MemberActive); err != nil {
		return nil, err
	}
	c.Members = append(c.Members, domain.Member{
		UserID:   u.UserID,
		Username: u.Username,
		Name:     u.Name,
		PhotoURL: u.PhotoURL,
		Role:     domain.CircleMember,
		Status:   domain.MemberActive,
		JoinedAt: time.Now(),
	})
	s.logger.Info("circle joined by code",
		zap.String("circle_id", c.CircleID), zap.Int64("user_id", userID))
	return c, nil
}

// Leave marks the member as left. The owner deletes the circle instead.
func (s *CircleService) Leave(circleID string, userID int64) (*domain.Circle, error) {
	c, err := s.loadCircle(circleID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID == userID {
		return nil, ErrOwnerCannotLeave
	}
	m, ok := c.FindMember(userID)
	if !ok || (m.Status != domain.MemberActive && m.Status != domain.MemberPending) {
		return nil, ErrNotCircleMember
	}
	if err := s.circles.SetMemberStatus(circleID, userID, domain.MemberLeft); err != nil {
		return nil, err
	}
	m.Status = domain.MemberLeft
	return c, nil
}

// RemoveMember kicks a member. Owner only, and never the owner
// themselves.
func (s *CircleService) RemoveMember(circleID string, ownerID, targetUserID int64) (*domain.Circle, error) {
	c, err := s.loadCircle(circleID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, ErrNotCircleOwner
	}
	if targetUserID == ownerID {
		return nil, ErrCannotRemoveSelf
	}
	m, ok := c.FindMember(targetUserID)
	if !ok {
		return nil, ErrNotCircleMember
	}
	if err := s.circles.SetMemberStatus(circleID, targetUserID, domain.MemberRemoved); err != nil {
		return nil, err
	}
	m.Status = domain.MemberRemoved
	return c, nil
}

// Delete removes the circle and all membership rows. Owner only.
func (s *CircleService) Delete(circleID string, ownerID int64) error {
	c, err := s.loadCircle(circleID)
	if err != nil {
		return err
	}
	if c.OwnerID != ownerID {
		return ErrNotCircleOwner
	}
	if err := s.circles.Delete(circleID); err != nil {
		return err
	}
	s.logger.Info("circle deleted",
		zap.String("circle_id", circleID), zap.Int64("owner_id", ownerID))
	return nil
}

func (s *CircleService) loadCircle(circleID string) (*domain.Circle, error) {
	c, err := s.circles.GetByID(circleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCircleNotFound
		}
		return nil, err
	}
	return c, nil
}

// dayNumber is the 1-based sequential day of the date relative to the
// anchor; unparseable inputs collapse to day 1.
func dayNumber(anchor, date string) int {
	a, err := domain.ParseDate(anchor)
	if err != nil {
		return 1
	}
	d, err := domain.ParseDate(date)
	if err != nil {
		return 1
	}
	return int(d.Sub(a).Hours()/24) + 1
}

func clampDay(n, max int) int {
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

func generateCircleID() string {
	id := make([]byte, circleIDLength)
	for i := range id {
		id[i] = promoCodeAlphabet[rand.Intn(len(promoCodeAlphabet))]
	}
	return circleIDPrefix + string(id)
}
