package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/canvaslite/backend/database"
	"github.com/canvaslite/backend/model"
)

// TestStudentCourseFlow walks the full student lifecycle against a real
// database: enroll in a course, submit an assignment, take the attached
// quiz, and get graded by the teacher.
//
// Requires a reachable PostgreSQL configured through the usual DB_* env
// vars. Run with RUN_INTEGRATION_TESTS=true.
func TestStudentCourseFlow(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	store, err := database.StartGORM()
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	db := store.GetDB().(*gorm.DB)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()
	stamp := time.Now().UnixNano()

	// Build a fresh course graph so reruns never collide.
	teacher := model.User{
		Email:        fmt.Sprintf("it-teacher-%d@example.com", stamp),
		PasswordHash: "x",
		FullName:     "Integration Teacher",
	}
	student := model.User{
		Email:        fmt.Sprintf("it-student-%d@example.com", stamp),
		PasswordHash: "x",
		FullName:     "Integration Student",
	}
	if err := db.Create(&teacher).Error; err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("create student: %v", err)
	}

	account := model.Account{Name: fmt.Sprintf("IT Account %d", stamp)}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	term := model.Term{
		Name:      fmt.Sprintf("IT Term %d", stamp),
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&term).Error; err != nil {
		t.Fatalf("create term: %v", err)
	}

	course := model.Course{
		AccountID:  account.ID,
		TermID:     term.ID,
		Name:       "Integration 101",
		CourseCode: fmt.Sprintf("INT%d", stamp),
		IsPublic:   true,
	}
	if err := db.Create(&course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}
	section := model.Section{CourseID: course.ID, Name: "Section 1"}
	if err := db.Create(&section).Error; err != nil {
		t.Fatalf("create section: %v", err)
	}
	teacherEnrollment := model.Enrollment{
		UserID:    teacher.ID,
		SectionID: section.ID,
		Role:      model.RoleTeacher,
		State:     model.EnrollmentActive,
	}
	if err := db.Create(&teacherEnrollment).Error; err != nil {
		t.Fatalf("enroll teacher: %v", err)
	}

	notifications := NewNotificationService(db)
	enrollments := NewEnrollmentService(db)
	submissions := NewSubmissionService(db, enrollments, notifications)
	quizzes := NewQuizService(db)

	// Phase 1: self-enrollment.
	enrollment, err := enrollments.EnrollInCourse(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("EnrollInCourse: %v", err)
	}
	if enrollment.SectionID != section.ID || enrollment.Role != model.RoleStudent {
		t.Fatalf("unexpected enrollment: %+v", enrollment)
	}
	if _, err := enrollments.EnrollInCourse(ctx, student.ID, course.ID); !errors.Is(err, ErrAlreadyEnrolled) {
		t.Fatalf("re-enroll should report ErrAlreadyEnrolled, got %v", err)
	}

	isTeacher, err := enrollments.IsTeacherForCourse(ctx, teacher.ID, course.ID)
	if err != nil || !isTeacher {
		t.Fatalf("IsTeacherForCourse(teacher) = %v, %v", isTeacher, err)
	}
	isTeacher, err = enrollments.IsTeacherForCourse(ctx, student.ID, course.ID)
	if err != nil || isTeacher {
		t.Fatalf("IsTeacherForCourse(student) = %v, %v", isTeacher, err)
	}
	t.Log("enrollment phase ok")

	// Phase 2: essay assignment, submit twice, grade.
	essay := model.Assignment{
		CourseID:        course.ID,
		Title:           "Integration Essay",
		PointsPossible:  10,
		SubmissionTypes: datatypes.NewJSONSlice([]string{"online_text_entry"}),
		GradingType:     model.GradingPoints,
		Published:       true,
	}
	if err := db.Create(&essay).Error; err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	body := "first draft"
	first, err := submissions.Submit(ctx, essay.ID, student.ID, SubmitInput{Body: &body})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if first.Attempt != 1 {
		t.Fatalf("first submission attempt = %d, want 1", first.Attempt)
	}

	body2 := "second draft"
	second, err := submissions.Submit(ctx, essay.ID, student.ID, SubmitInput{Body: &body2})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if second.Attempt != 2 {
		t.Fatalf("second submission attempt = %d, want 2", second.Attempt)
	}

	latest, err := submissions.LatestForUser(ctx, essay.ID, student.ID)
	if err != nil {
		t.Fatalf("LatestForUser: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Fatalf("LatestForUser returned %+v, want submission %d", latest, second.ID)
	}

	score := 9.5
	graded, err := submissions.Grade(ctx, essay.ID, second.ID, teacher.ID, GradeInput{Score: &score})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if graded.Score == nil || *graded.Score != score {
		t.Fatalf("graded score = %v, want %v", graded.Score, score)
	}
	if _, err := submissions.Grade(ctx, essay.ID, second.ID, student.ID, GradeInput{Score: &score}); !errors.Is(err, ErrNotTeacher) {
		t.Fatalf("grading by a student should fail with ErrNotTeacher, got %v", err)
	}

	// Staff grading skips the enrollment check but otherwise behaves the
	// same, notification included.
	staffScore := 8.0
	staffGraded, err := submissions.GradeAsStaff(ctx, essay.ID, first.ID, GradeInput{Score: &staffScore})
	if err != nil {
		t.Fatalf("GradeAsStaff: %v", err)
	}
	if staffGraded.WorkflowState != model.SubmissionGraded {
		t.Fatalf("staff-graded workflow state = %s, want graded", staffGraded.WorkflowState)
	}
	if staffGraded.Grade == nil || *staffGraded.Grade != "8" {
		t.Fatalf("staff-graded grade = %v, want 8", staffGraded.Grade)
	}

	var gradeNotices int64
	err = db.Model(&model.UserNotification{}).
		Where("user_id = ? AND category = ?", student.ID, model.NotificationCategoryGradePosted).
		Count(&gradeNotices).Error
	if err != nil {
		t.Fatalf("count grade notifications: %v", err)
	}
	if gradeNotices != 2 {
		t.Fatalf("grade-posted notifications = %d, want 2 (teacher grade + staff grade)", gradeNotices)
	}
	t.Log("submission phase ok")

	// Phase 3: quiz attempt from begin to finish.
	quizAssignment := model.Assignment{
		CourseID:        course.ID,
		Title:           "Integration Quiz",
		PointsPossible:  4,
		SubmissionTypes: datatypes.NewJSONSlice([]string{"online_quiz"}),
		GradingType:     model.GradingPoints,
		Published:       true,
	}
	if err := db.Create(&quizAssignment).Error; err != nil {
		t.Fatalf("create quiz assignment: %v", err)
	}
	quiz := model.Quiz{AssignmentID: quizAssignment.ID, QuizType: model.QuizGraded, AllowedAttempts: 3}
	if err := db.Create(&quiz).Error; err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	question := model.Question{
		QuizID: quiz.ID,
		Text:   "Pick the right answer",
		Type:   model.QuestionMultipleChoice,
		Points: 4,
		Choices: []model.Choice{
			{Text: "wrong", IsCorrect: false},
			{Text: "right", IsCorrect: true},
		},
	}
	if err := db.Create(&question).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}

	var correct model.Choice
	if err := db.Where("question_id = ? AND is_correct = true", question.ID).First(&correct).Error; err != nil {
		t.Fatalf("load correct choice: %v", err)
	}

	// Leave a gap in the attempt numbers: two direct submits, then the
	// first one removed. The next quiz attempt must take number 3, not
	// collide with the surviving number 2.
	quizBody := "typed answer"
	if _, err := submissions.Submit(ctx, quizAssignment.ID, student.ID, SubmitInput{Body: &quizBody}); err != nil {
		t.Fatalf("direct submit 1: %v", err)
	}
	gapSubmission, err := submissions.Submit(ctx, quizAssignment.ID, student.ID, SubmitInput{Body: &quizBody})
	if err != nil {
		t.Fatalf("direct submit 2: %v", err)
	}
	var firstDirect model.Submission
	if err := db.Where("assignment_id = ? AND user_id = ? AND attempt = 1", quizAssignment.ID, student.ID).
		First(&firstDirect).Error; err != nil {
		t.Fatalf("load first direct submission: %v", err)
	}
	if err := db.Delete(&firstDirect).Error; err != nil {
		t.Fatalf("delete first direct submission: %v", err)
	}

	attempt, err := quizzes.BeginAttempt(ctx, quiz.ID, student.ID)
	if err != nil {
		t.Fatalf("BeginAttempt: %v", err)
	}
	if attempt.Submission.Attempt != gapSubmission.Attempt+1 {
		t.Fatalf("attempt number = %d, want %d", attempt.Submission.Attempt, gapSubmission.Attempt+1)
	}
	if _, err := quizzes.AnswerQuestion(ctx, attempt.ID, student.ID, AnswerInput{
		QuestionID:       question.ID,
		SelectedChoiceID: &correct.ID,
	}); err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}

	quizSubmission, err := quizzes.FinishAttempt(ctx, attempt.ID, student.ID)
	if err != nil {
		t.Fatalf("FinishAttempt: %v", err)
	}
	if quizSubmission.Score == nil || *quizSubmission.Score != 4 {
		t.Fatalf("quiz score = %v, want 4", quizSubmission.Score)
	}

	// Two live submissions so far; the third is still within the limit,
	// the fourth is not.
	lastAttempt, err := quizzes.BeginAttempt(ctx, quiz.ID, student.ID)
	if err != nil {
		t.Fatalf("third attempt within limit: %v", err)
	}
	if _, err := quizzes.FinishAttempt(ctx, lastAttempt.ID, student.ID); err != nil {
		t.Fatalf("finish third attempt: %v", err)
	}
	if _, err := quizzes.BeginAttempt(ctx, quiz.ID, student.ID); !errors.Is(err, ErrAttemptLimit) {
		t.Fatalf("attempt past the limit should fail with ErrAttemptLimit, got %v", err)
	}
	t.Log("quiz phase ok")
}
