package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User roles.
const (
	RoleUser  = "user"
	RoleHR    = "hr"
	RoleAdmin = "admin"
)

// Portfolio statuses.
const (
	PortfolioUpcoming   = "upcoming"
	PortfolioInProgress = "in_progress"
	PortfolioCompleted  = "completed"
)

// Job types and statuses.
const (
	JobFullTime   = "full_time"
	JobPartTime   = "part_time"
	JobContract   = "contract"
	JobInternship = "internship"

	JobOpen   = "open"
	JobClosed = "closed"
)

// Contact submission types and statuses.
const (
	ContactTypeContact = "contact"
	ContactTypeResume  = "resume"

	ContactNew     = "new"
	ContactRead    = "read"
	ContactReplied = "replied"
)

// GalleryCategories is the closed set of categories a gallery item may carry.
var GalleryCategories = []string{"Fests", "Awards", "Fun Activities", "Team Moments"}

// Image holds the location of a remotely hosted asset.
// PublicID is the object key used to destroy the asset later.
type Image struct {
	URL      string `gorm:"size:512" json:"url"`
	PublicID string `gorm:"size:512" json:"publicId"`
}

// User represents an account able to authenticate against the API.
type User struct {
	gorm.Model
	Name            string `gorm:"size:128"`
	Email           string `gorm:"uniqueIndex;size:255"`
	PasswordHash    string `gorm:"size:255"`
	Role            string `gorm:"size:16;default:user"`
	ResetOTP        string `gorm:"size:8"`
	ResetOTPExpires *time.Time
}

// Portfolio represents a showcased project.
type Portfolio struct {
	gorm.Model
	Title        string `gorm:"size:255"`
	Category     string `gorm:"size:128"`
	Description  string
	Status       string `gorm:"size:32;default:upcoming"`
	DemoURL      string `gorm:"size:512"`
	Technologies datatypes.JSON
	Features     datatypes.JSON
	Results      datatypes.JSON
	Color        string `gorm:"size:64"`
	Image        Image  `gorm:"embedded;embeddedPrefix:image_"`
}

// TeamMember represents a person on the team page.
type TeamMember struct {
	gorm.Model
	Name     string `gorm:"size:128"`
	Role     string `gorm:"size:128"`
	Bio      string
	Color    string `gorm:"size:64"`
	LinkedIn string `gorm:"size:512"`
	Email    string `gorm:"size:255"`
	Image    Image  `gorm:"embedded;embeddedPrefix:image_"`
}

// Service represents an offering on the services page.
type Service struct {
	gorm.Model
	Title       string `gorm:"size:255"`
	Description string
	Icon        string `gorm:"size:128"`
	Features    datatypes.JSON
	Color       string `gorm:"size:64"`
	Image       Image  `gorm:"embedded;embeddedPrefix:image_"`
	Order       int64  `gorm:"index"`
}

// GalleryItem represents a blog/gallery entry.
type GalleryItem struct {
	gorm.Model
	Title            string `gorm:"size:255"`
	Description      string
	Image            Image `gorm:"embedded;embeddedPrefix:image_"`
	AdditionalImages datatypes.JSON
	Category         string `gorm:"size:64;index"`
	Date             *time.Time
	Location         string `gorm:"size:255"`
	ReadMoreLink     string `gorm:"size:512"`
	IsActive         bool   `gorm:"default:true"`
	Order            int64  `gorm:"index"`
	CreatedBy        uint   `gorm:"index"`
}

// Job represents a career posting. JobNumber is assigned from the
// job counter at creation; zero means a legacy row that gets a number
// lazily on first read.
type Job struct {
	gorm.Model
	JobNumber   uint   `gorm:"index"`
	Title       string `gorm:"size:255"`
	Description string
	Location    string `gorm:"size:255"`
	Type        string `gorm:"size:32;default:full_time"`
	Experience  string `gorm:"size:128"`
	Department  string `gorm:"size:128"`
	Status      string `gorm:"size:16;default:open;index"`
}

// JobCounter backs atomic job numbering. A single row named "job" is
// incremented inside the create transaction.
type JobCounter struct {
	Name  string `gorm:"primaryKey;size:32"`
	Value uint64
}

// Settings is a singleton document holding tweakable site appearance values.
type Settings struct {
	gorm.Model
	HeroTitleColor    string `gorm:"size:64"`
	HeroSubtitleColor string `gorm:"size:64"`
}

// Resume holds metadata of a locally stored resume document.
type Resume struct {
	Filename     string `gorm:"size:255" json:"filename"`
	OriginalName string `gorm:"size:255" json:"originalName"`
	Mimetype     string `gorm:"size:128" json:"mimetype"`
	Size         int64  `json:"size"`
	Path         string `gorm:"size:512" json:"path"`
	URL          string `gorm:"size:512" json:"url"`
}

// ContactSubmission represents a public contact-form or job-application entry.
// Replies is a JSON array of {message, repliedBy, repliedAt} objects.
type ContactSubmission struct {
	gorm.Model
	Name    string `gorm:"size:128"`
	Email   string `gorm:"size:255"`
	Phone   string `gorm:"size:64"`
	Subject string `gorm:"size:255"`
	Message string
	Type    string `gorm:"size:16;default:contact"`
	Resume  Resume `gorm:"embedded;embeddedPrefix:resume_"`
	Status  string `gorm:"size:16;default:new;index"`
	Replies datatypes.JSON
}
