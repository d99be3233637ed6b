package service

import (
	"errors"
	"time"

	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/stats"
	"gorm.io/gorm"
)

// Profile is the signed-in user's own page. Member data is present only
// when the account is linked to a directory entry.
type Profile struct {
	User    *models.User        `json:"user"`
	Member  *models.Member      `json:"member,omitempty"`
	Stats   *stats.MemberStats  `json:"stats,omitempty"`
	History []stats.MonthBucket `json:"history,omitempty"`
}

// ProfileService assembles personal profile pages.
type ProfileService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProfileService creates a new ProfileService.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, now: time.Now}
}

// Get builds the profile for user. An account is linked to the member whose
// member code equals its username.
func (s *ProfileService) Get(user *models.User) (*Profile, error) {
	profile := &Profile{User: user}

	var member models.Member
	err := s.db.Where("member_code = ?", user.Username).First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return profile, nil
	}
	if err != nil {
		return nil, err
	}
	profile.Member = &member

	var attendances []models.Attendance
	if err := s.db.Preload("Event").Where("member_id = ?", member.ID).Find(&attendances).Error; err != nil {
		return nil, err
	}
	var donations []models.Donation
	if err := s.db.Where("member_id = ?", member.ID).Find(&donations).Error; err != nil {
		return nil, err
	}

	memberStats := stats.ComputeMemberStats(member.ID, attendances, donations, s.now())
	profile.Stats = &memberStats
	profile.History = stats.GroupAttendanceByMonth(attendances, stats.DefaultMonthLimit)
	return profile, nil
}
