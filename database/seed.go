package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/model"
	"github.com/canvaslite/backend/utils/auth"
)

// Seeder populates a development database with a small but complete course
// graph: users, an account and term, two courses with sections and
// enrollments, and sample content in the history course.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions in dependency order.
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	teacher, students, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	account, term, err := s.SeedAccountAndTerm()
	if err != nil {
		return fmt.Errorf("failed to seed account and term: %w", err)
	}

	history, biology, err := s.SeedCourses(account, term)
	if err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	historySection, biologySection, err := s.SeedSections(history, biology)
	if err != nil {
		return fmt.Errorf("failed to seed sections: %w", err)
	}

	if err := s.SeedEnrollments(teacher, students, historySection, biologySection); err != nil {
		return fmt.Errorf("failed to seed enrollments: %w", err)
	}

	if err := s.SeedHistoryContent(history); err != nil {
		return fmt.Errorf("failed to seed course content: %w", err)
	}

	if err := s.SeedVideos(history); err != nil {
		return fmt.Errorf("failed to seed videos: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedUsers creates the demo teacher and five students. All seed accounts
// share the password "1234"; existing rows keep their data but get the
// password reset so local logins always work.
func (s *Seeder) SeedUsers() (*model.User, []model.User, error) {
	passwordHash, err := auth.HashPassword("1234")
	if err != nil {
		return nil, nil, err
	}

	teacher := model.User{
		Email:    "teacher@example.com",
		FullName: "Canvas Teacher",
		TimeZone: "UTC",
		IsStaff:  true,
	}
	if err := s.db.Where(model.User{Email: teacher.Email}).FirstOrCreate(&teacher).Error; err != nil {
		return nil, nil, err
	}
	if err := s.db.Model(&teacher).Update("password_hash", passwordHash).Error; err != nil {
		return nil, nil, err
	}

	students := make([]model.User, 0, 5)
	for i := 1; i <= 5; i++ {
		student := model.User{
			Email:    fmt.Sprintf("student%d@example.com", i),
			FullName: fmt.Sprintf("Student %d", i),
			TimeZone: "UTC",
		}
		if err := s.db.Where(model.User{Email: student.Email}).FirstOrCreate(&student).Error; err != nil {
			return nil, nil, err
		}
		if err := s.db.Model(&student).Update("password_hash", passwordHash).Error; err != nil {
			return nil, nil, err
		}
		students = append(students, student)
	}

	log.Println("✅ Users created/updated")
	return &teacher, students, nil
}

// SeedAccountAndTerm creates the root account and a term spanning the
// current calendar year.
func (s *Seeder) SeedAccountAndTerm() (*model.Account, *model.Term, error) {
	account := model.Account{Name: "Main Account"}
	if err := s.db.Where("name = ? AND parent_id IS NULL", account.Name).FirstOrCreate(&account).Error; err != nil {
		return nil, nil, err
	}

	year := time.Now().UTC().Year()
	term := model.Term{
		Name:      "Default Term",
		StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := s.db.Where(model.Term{Name: term.Name}).FirstOrCreate(&term).Error; err != nil {
		return nil, nil, err
	}

	log.Println("✅ Account and term created")
	return &account, &term, nil
}

// SeedCourses creates the two public demo courses under the root account.
func (s *Seeder) SeedCourses(account *model.Account, term *model.Term) (*model.Course, *model.Course, error) {
	history := model.Course{
		AccountID:  account.ID,
		TermID:     term.ID,
		Name:       "History 101: American History",
		CourseCode: "HIST101",
		IsPublic:   true,
	}
	if err := s.db.Where(model.Course{CourseCode: history.CourseCode}).FirstOrCreate(&history).Error; err != nil {
		return nil, nil, err
	}

	biology := model.Course{
		AccountID:  account.ID,
		TermID:     term.ID,
		Name:       "Biology 101",
		CourseCode: "BIO101",
		IsPublic:   true,
	}
	if err := s.db.Where(model.Course{CourseCode: biology.CourseCode}).FirstOrCreate(&biology).Error; err != nil {
		return nil, nil, err
	}

	log.Println("✅ Courses created")
	return &history, &biology, nil
}

// SeedSections creates one section per course.
func (s *Seeder) SeedSections(history, biology *model.Course) (*model.Section, *model.Section, error) {
	historySection := model.Section{
		CourseID: history.ID,
		Name:     "History 101 - Section 1",
	}
	if err := s.db.Where(model.Section{CourseID: history.ID, Name: historySection.Name}).FirstOrCreate(&historySection).Error; err != nil {
		return nil, nil, err
	}

	biologySection := model.Section{
		CourseID: biology.ID,
		Name:     "Biology 101 - Section 1",
	}
	if err := s.db.Where(model.Section{CourseID: biology.ID, Name: biologySection.Name}).FirstOrCreate(&biologySection).Error; err != nil {
		return nil, nil, err
	}

	log.Println("✅ Sections created")
	return &historySection, &biologySection, nil
}

// SeedEnrollments enrolls the teacher as a teacher and every student as a
// student in both sections, all active.
func (s *Seeder) SeedEnrollments(teacher *model.User, students []model.User, sections ...*model.Section) error {
	enroll := func(userID, sectionID uint, role model.EnrollmentRole) error {
		enrollment := model.Enrollment{
			UserID:    userID,
			SectionID: sectionID,
			Role:      role,
			State:     model.EnrollmentActive,
		}
		return s.db.Where(model.Enrollment{UserID: userID, SectionID: sectionID}).
			FirstOrCreate(&enrollment).Error
	}

	for _, section := range sections {
		if err := enroll(teacher.ID, section.ID, model.RoleTeacher); err != nil {
			return err
		}
		for _, student := range students {
			if err := enroll(student.ID, section.ID, model.RoleStudent); err != nil {
				return err
			}
		}
	}

	log.Println("✅ Enrollments created")
	return nil
}

// SeedHistoryContent fills the history course with two modules, two pages,
// a text assignment, and a quiz assignment, then links all of it into the
// modules as items.
func (s *Seeder) SeedHistoryContent(history *model.Course) error {
	week1 := model.Module{CourseID: history.ID, Name: "Week 1: Introduction", Position: 1}
	if err := s.db.Where(model.Module{CourseID: history.ID, Name: week1.Name}).FirstOrCreate(&week1).Error; err != nil {
		return err
	}
	week2 := model.Module{CourseID: history.ID, Name: "Week 2: Revolution", Position: 2}
	if err := s.db.Where(model.Module{CourseID: history.ID, Name: week2.Name}).FirstOrCreate(&week2).Error; err != nil {
		return err
	}

	syllabus := model.Page{
		CourseID:    history.ID,
		Title:       "Course Syllabus",
		Body:        "<h1>Course Syllabus</h1><p>Welcome to History 101.</p>",
		IsPublished: true,
		IsFrontPage: true,
	}
	if err := s.db.Where(model.Page{CourseID: history.ID, Title: syllabus.Title}).FirstOrCreate(&syllabus).Error; err != nil {
		return err
	}

	welcome := model.Page{
		CourseID:    history.ID,
		Title:       "Welcome to History",
		Body:        "<h1>Welcome to History</h1><p>Let's begin our journey.</p>",
		IsPublished: true,
	}
	if err := s.db.Where(model.Page{CourseID: history.ID, Title: welcome.Title}).FirstOrCreate(&welcome).Error; err != nil {
		return err
	}

	positionPaper := model.Assignment{
		CourseID:        history.ID,
		Title:           "Position Paper",
		Description:     "Write a position paper on a key event in American history.",
		PointsPossible:  10,
		SubmissionTypes: datatypes.NewJSONSlice([]string{"online_text_entry", "online_upload"}),
		GradingType:     model.GradingPoints,
		Published:       true,
	}
	if err := s.db.Where(model.Assignment{CourseID: history.ID, Title: positionPaper.Title}).FirstOrCreate(&positionPaper).Error; err != nil {
		return err
	}

	revolutionQuiz := model.Assignment{
		CourseID:        history.ID,
		Title:           "Revolution Quiz",
		Description:     "Quiz on the American Revolution.",
		PointsPossible:  10,
		SubmissionTypes: datatypes.NewJSONSlice([]string{"online_quiz", "online_upload"}),
		GradingType:     model.GradingPoints,
		Published:       true,
	}
	if err := s.db.Where(model.Assignment{CourseID: history.ID, Title: revolutionQuiz.Title}).FirstOrCreate(&revolutionQuiz).Error; err != nil {
		return err
	}

	timeLimit := 30
	quiz := model.Quiz{
		AssignmentID:     revolutionQuiz.ID,
		QuizType:         model.QuizGraded,
		TimeLimitMinutes: &timeLimit,
		AllowedAttempts:  3,
		ShuffleAnswers:   true,
	}
	if err := s.db.Where(model.Quiz{AssignmentID: revolutionQuiz.ID}).FirstOrCreate(&quiz).Error; err != nil {
		return err
	}

	items := []model.ModuleItem{
		{ModuleID: week1.ID, Position: 1, ContentType: model.ContentPage, ContentID: syllabus.ID},
		{ModuleID: week1.ID, Position: 2, ContentType: model.ContentAssignment, ContentID: positionPaper.ID},
		{ModuleID: week2.ID, Position: 1, ContentType: model.ContentPage, ContentID: welcome.ID},
		{ModuleID: week2.ID, Position: 2, ContentType: model.ContentAssignment, ContentID: revolutionQuiz.ID},
	}
	for i := range items {
		item := items[i]
		err := s.db.Where(model.ModuleItem{
			ModuleID:    item.ModuleID,
			ContentType: item.ContentType,
			ContentID:   item.ContentID,
		}).FirstOrCreate(&items[i]).Error
		if err != nil {
			return err
		}
	}

	log.Println("✅ Content (modules, pages, assignments, quiz) created")
	return nil
}

// SeedVideos adds two short sample videos to the history course for
// exercising the watch-progress tracking.
func (s *Seeder) SeedVideos(history *model.Course) error {
	blazesURL := "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4"
	bunnyURL := "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"

	videos := []model.Video{
		{CourseID: history.ID, Title: "Sample Video: For Bigger Blazes", VideoURL: &blazesURL, Duration: 15},
		{CourseID: history.ID, Title: "Sample Video: Big Buck Bunny", VideoURL: &bunnyURL, Duration: 596},
	}
	for i := range videos {
		video := videos[i]
		err := s.db.Where(model.Video{CourseID: video.CourseID, Title: video.Title}).FirstOrCreate(&videos[i]).Error
		if err != nil {
			return err
		}
	}

	log.Println("✅ Videos created")
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
