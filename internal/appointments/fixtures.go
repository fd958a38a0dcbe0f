package appointments

import "time"

// DemoFixtures returns the two sample appointments shown on a fresh dashboard:
// a confirmed checkup today and a pending orthodontic consult tomorrow.
func DemoFixtures(now time.Time, loc *time.Location) []Appointment {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return []Appointment{
		{
			ID:           "apt_1",
			PatientName:  "John Doe",
			PatientEmail: "john@example.com",
			PatientPhone: "555-0101",
			ServiceID:    "s1",
			DoctorID:     "d1",
			Date:         local.Format(DateLayout),
			Time:         "09:00",
			Status:       StatusConfirmed,
			CreatedAt:    now.Add(-100 * time.Second).UTC(),
		},
		{
			ID:           "apt_2",
			PatientName:  "Alice Smith",
			PatientEmail: "alice@example.com",
			PatientPhone: "555-0202",
			ServiceID:    "s3",
			DoctorID:     "d2",
			Date:         local.AddDate(0, 0, 1).Format(DateLayout),
			Time:         "14:30",
			Status:       StatusPending,
			CreatedAt:    now.Add(-50 * time.Second).UTC(),
		},
	}
}
