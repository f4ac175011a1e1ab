package syncer

import (
	"sort"

	"github.com/crewops/opsync/internal/domain"
)

// MergeByID combines a remote-fetched collection with its local cache,
// keyed by record identity. Records present in both keep the remote value
// (remote is fresher whenever reachable), records present only locally are
// retained (not yet synchronized), and records present only remotely are
// added. Remote records keep their fetched order; local-only records are
// appended in cache order, so the result is deterministic for a given
// input. Duplicate ids within one source resolve to that source's last
// occurrence.
func MergeByID[T any](remote, local []T, key func(T) string) []T {
	merged := make([]T, 0, len(remote)+len(local))
	seen := make(map[string]int, len(remote)+len(local))
	fromRemote := make(map[string]bool, len(remote))

	for _, item := range remote {
		k := key(item)
		if pos, ok := seen[k]; ok {
			merged[pos] = item
			continue
		}
		seen[k] = len(merged)
		fromRemote[k] = true
		merged = append(merged, item)
	}

	for _, item := range local {
		k := key(item)
		if pos, ok := seen[k]; ok {
			if !fromRemote[k] {
				merged[pos] = item
			}
			continue
		}
		seen[k] = len(merged)
		merged = append(merged, item)
	}

	return merged
}

// MergeDispatch merges each sub-collection of the dispatch document.
func MergeDispatch(remote, local DispatchCollections) DispatchCollections {
	return DispatchCollections{
		Jobs: MergeByID(remote.Jobs, local.Jobs,
			func(j domain.Job) string { return j.JobID }),
		Employees: MergeByID(remote.Employees, local.Employees,
			func(e domain.Employee) string { return e.EmployeeID }),
		CustomerProfiles: MergeByID(remote.CustomerProfiles, local.CustomerProfiles,
			func(p domain.CustomerProfile) string { return p.ProfileID }),
		Schedules: MergeByID(remote.Schedules, local.Schedules,
			func(s domain.ScheduleEntry) string { return s.ScheduleID }),
	}
}

// DispatchCollections groups the four dispatch sub-collections for merge.
type DispatchCollections struct {
	Jobs             []domain.Job
	Employees        []domain.Employee
	CustomerProfiles []domain.CustomerProfile
	Schedules        []domain.ScheduleEntry
}

// MergeReports merges light report lists and orders the result by the
// reports' freshness convention: newest submission first.
func MergeReports(remote, local []domain.InspectionReportLight) []domain.InspectionReportLight {
	merged := MergeByID(remote, local,
		func(r domain.InspectionReportLight) string { return r.ReportID })
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SubmittedAt.After(merged[j].SubmittedAt)
	})
	return merged
}

// MergeLocations merges the employee-location maps. Map collections have
// no local-insertion ordering to preserve, so a plain overlay suffices:
// start from the local map and overwrite with every remote entry.
func MergeLocations(remote, local map[string]domain.EmployeeLocation) map[string]domain.EmployeeLocation {
	merged := make(map[string]domain.EmployeeLocation, len(remote)+len(local))
	for id, loc := range local {
		merged[id] = loc
	}
	for id, loc := range remote {
		merged[id] = loc
	}
	return merged
}
