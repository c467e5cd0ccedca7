// models/course.go
package models

import "time"

// Content types a course can contain.
const (
	ContentTypeArticle   = "article"
	ContentTypeSection   = "section"
	ContentTypeFlashcard = "flashcard"
	ContentTypeMindmap   = "mindmap"
	ContentTypeMCQ       = "mcq"
	ContentTypeTrueFalse = "tf"
	ContentTypeFillup    = "fillup"
)

// Course is the minimal course record the engine needs. Generation and
// rendering of course material live in the content service, not here.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;size:200" json:"title"`
	Topic     string    `gorm:"size:200" json:"topic"`
	CreatedBy *uint     `gorm:"index" json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contents []CourseContent `gorm:"foreignKey:CourseID" json:"contents,omitempty"`
}

// CourseContent maps an opaque content id (article page, flashcard,
// question) to its course. Course progress and resets are scoped by
// these rows.
type CourseContent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	ContentID string    `gorm:"not null;uniqueIndex;size:255" json:"content_id"`
	Type      string    `gorm:"not null;size:20;index" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (CourseContent) TableName() string {
	return "course_contents"
}
