package models

// Counselor is a member of the counseling staff available for MEET sessions.
type Counselor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// Counselors is the declared roster. Auto-assignment walks this slice in
// order, so the declaration order is the assignment tie-break.
var Counselors = []Counselor{
	{ID: "c-01", Name: "Ms. Althea Ramos", Title: "Guidance Counselor"},
	{ID: "c-02", Name: "Mr. Joel Santiago", Title: "Guidance Counselor"},
	{ID: "c-03", Name: "Ms. Bianca Dela Cruz", Title: "Psychologist"},
	{ID: "c-04", Name: "Mr. Ramon Villanueva", Title: "Guidance Counselor"},
	{ID: "c-05", Name: "Ms. Karen Uy", Title: "Counseling Intern"},
}

// CounselorByID looks a counselor up in the roster.
func CounselorByID(id string) (Counselor, bool) {
	for _, c := range Counselors {
		if c.ID == id {
			return c, true
		}
	}
	return Counselor{}, false
}

// CounselorStatus is the derived availability label shown next to a counselor.
type CounselorStatus string

const (
	CounselorAvailable   CounselorStatus = "Available"
	CounselorLimited     CounselorStatus = "Limited"
	CounselorFullyBooked CounselorStatus = "Fully Booked"
	CounselorOnLeave     CounselorStatus = "On Leave"
	CounselorSelectDate  CounselorStatus = "Select date"
)

// StatusRank orders counselor summaries for display: the most bookable first.
func StatusRank(s CounselorStatus) int {
	switch s {
	case CounselorAvailable:
		return 0
	case CounselorLimited:
		return 1
	case CounselorFullyBooked:
		return 2
	case CounselorOnLeave:
		return 3
	default:
		return 4
	}
}

// CounselorSummary pairs a counselor with their derived standing for a date.
type CounselorSummary struct {
	Counselor Counselor       `json:"counselor"`
	Status    CounselorStatus `json:"status"`
	OpenSlots int             `json:"openSlots"`
}
