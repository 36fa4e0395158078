package models

import (
	"strings"
	"time"

	"Gin_postgres_redis_inventory_tool/calendar"
)

type TestResult string

const (
	TestPass TestResult = "pass"
	TestFail TestResult = "fail"
)

// ElectronicTest is one entry of a device's recurring safety test history.
// Rows are never updated; a new inspection appends a new row.
type ElectronicTest struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	DeviceID       uint           `gorm:"index;not null" json:"deviceId"`
	Tester         string         `gorm:"size:200;not null" json:"tester"`
	LastTest       *time.Time     `gorm:"index" json:"lastTest,omitempty"`
	LastTestResult TestResult     `gorm:"size:8;not null" json:"lastTestResult"`
	NextTestPeriod int            `gorm:"not null" json:"nextTestPeriod"`
	Scale          calendar.Scale `gorm:"size:10;not null" json:"scale"`
	CreatedBy      uint           `gorm:"not null" json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`

	NextDueAt *time.Time `gorm:"-" json:"nextDueAt,omitempty"`
}

func (ElectronicTest) TableName() string { return "node_electronic_tests" }

// NextDue is lastTest + (nextTestPeriod, scale); nil without a lastTest.
func (t *ElectronicTest) NextDue() *time.Time {
	if t.LastTest == nil || t.NextTestPeriod <= 0 {
		return nil
	}
	due, err := calendar.Add(*t.LastTest, t.NextTestPeriod, t.Scale)
	if err != nil {
		return nil
	}
	return &due
}

// WithNextDue fills the derived field for responses.
func (t *ElectronicTest) WithNextDue() *ElectronicTest {
	t.NextDueAt = t.NextDue()
	return t
}

type ElectronicTestInput struct {
	Tester         string         `json:"tester" binding:"required,notblank,max=200"`
	LastTest       *Date          `json:"lastTest"`
	LastTestResult TestResult     `json:"lastTestResult" binding:"required,oneof=pass fail"`
	NextTestPeriod int            `json:"nextTestPeriod" binding:"min=1"`
	Scale          calendar.Scale `json:"scale" binding:"required,oneof=months years"`
}

func (in *ElectronicTestInput) Validate() error { return Check(in) }

func (in *ElectronicTestInput) ToTest(deviceID, actorID uint, now time.Time) *ElectronicTest {
	return &ElectronicTest{
		DeviceID:       deviceID,
		Tester:         strings.TrimSpace(in.Tester),
		LastTest:       in.LastTest.TimePtr(),
		LastTestResult: in.LastTestResult,
		NextTestPeriod: in.NextTestPeriod,
		Scale:          in.Scale,
		CreatedBy:      actorID,
		CreatedAt:      now,
	}
}
