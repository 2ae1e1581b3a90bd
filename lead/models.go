package lead

import "time"

type Track string

const (
	TrackUnclassified Track = "unclassified"
	TrackEnterprise   Track = "enterprise"
	TrackSMB          Track = "smb"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Status string

const (
	StatusNew          Status = "new"
	StatusClassified   Status = "classified"
	StatusResearched   Status = "researched"
	StatusAnalyzed     Status = "analyzed"
	StatusOutreachSent Status = "outreach_sent"
	StatusQuoted       Status = "quoted"
	StatusClosedWon    Status = "closed_won"
	StatusClosedLost   Status = "closed_lost"
)

// Company is a prospect organization. Matched by name at intake so repeated
// submissions reuse the same row.
type Company struct {
	ID            string
	Name          string
	Website       *string
	Industry      *string
	EmployeeCount *int
	Location      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contact is a person at a company. Matched by email at intake.
type Contact struct {
	ID        string
	CompanyID string
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Title     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lead is one prospect under evaluation. Track stays unclassified until a
// classification is applied; once classified the confidence is always set.
type Lead struct {
	ID                       string
	CompanyID                string
	ContactID                string
	Track                    Track
	Source                   string
	Status                   Status
	Priority                 Priority
	ClassificationConfidence *float64
	Notes                    *string
	SheetRow                 *int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Detail is the lead joined with its company and contact, the shape prompt
// builders and the classifier consume.
type Detail struct {
	LeadID        string
	CompanyID     string
	ContactID     string
	CompanyName   string
	Website       *string
	Industry      *string
	EmployeeCount *int
	Location      *string
	FirstName     string
	LastName      string
	Email         string
	Phone         *string
	Title         *string
	Track         Track
	Status        Status
	Priority      Priority
	Notes         *string
	SheetRow      *int
}

type Filters struct {
	Track     Track
	Status    Status
	Priority  Priority
	Page      int
	PageSize  int
	SortKey   string
	SortOrder string
}
