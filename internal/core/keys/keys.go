// Package keys composes the partition, sort and GSI1 keys of the single
// table. Every entity has exactly one row; children share their parent's
// partition and are listed with a sort-key prefix.
//
//	Entity        PK                          SK                  GSI1PK            GSI1SK
//	User          USER#{id}                   PROFILE             USERS             EMAIL#{email}
//	Project       PROJECT#{id}                METADATA            USER#{ownerId}    PROJECT#{id}
//	Member        PROJECT#{id}                MEMBER#{userId}     USER#{userId}     MEMBER#{projectId}
//	Task          PROJECT#{id}                TASK#{taskId}
//	Stage         PROJECT#{id}                STAGE#{stageId}
//	Target        PROJECT#{id}                TARGET#{targetId}
//	Invitation    PROJECT#{id}                INVITATION#{invId}  INVITEE#{email}   INVITATION#{invId}
//	Matrix cell   PROJECT#{id}#TARGET#{tid}   TASK#{stageId}      ASSIGNEE#{userId} DUE#{date}#{pid}#{tid}#{sid}
//	Notification  USER#{userId}               NOTIFICATION#{id}
//	Tenant        TENANT#{id}                 METADATA
//	Tenant member TENANT#{id}                 MEMBER#{userId}     USER#{userId}     TENANT#{tenantId}
//	Tenant link   TENANT#{id}                 PROJECT#{projectId}
//	Action        PROJECT#{id}                ACTION#{key}
package keys

import (
	"strings"
)

const (
	sep = "#"

	ProfileSK  = "PROFILE"
	MetadataSK = "METADATA"
	UsersPK    = "USERS"

	PrefixUser         = "USER#"
	PrefixProject      = "PROJECT#"
	PrefixMember       = "MEMBER#"
	PrefixTask         = "TASK#"
	PrefixStage        = "STAGE#"
	PrefixTarget       = "TARGET#"
	PrefixInvitation   = "INVITATION#"
	PrefixNotification = "NOTIFICATION#"
	PrefixEmail        = "EMAIL#"
	PrefixInvitee      = "INVITEE#"
	PrefixAssignee     = "ASSIGNEE#"
	PrefixDue          = "DUE#"
	PrefixNoDue        = "NODUE#"
	PrefixIdempotency  = "IDEMPOTENCY#"
	PrefixTenant       = "TENANT#"
	PrefixAction       = "ACTION#"
)

// rangeEnd sorts after every printable suffix of a key prefix.
const rangeEnd = "~"

func User(id string) string       { return PrefixUser + id }
func Project(id string) string    { return PrefixProject + id }
func Member(userID string) string { return PrefixMember + userID }
func Task(id string) string       { return PrefixTask + id }
func Stage(id string) string      { return PrefixStage + id }
func Target(id string) string     { return PrefixTarget + id }

func Invitation(id string) string   { return PrefixInvitation + id }
func Notification(id string) string { return PrefixNotification + id }
func Tenant(id string) string       { return PrefixTenant + id }
func Action(key string) string      { return PrefixAction + key }

// Email is the user-directory sort key. Emails compare case-insensitively.
func Email(email string) string { return PrefixEmail + NormalizeEmail(email) }

// Invitee is the GSI1 partition holding every invitation sent to email.
func Invitee(email string) string { return PrefixInvitee + NormalizeEmail(email) }

// MemberOf is the GSI1 sort key of a membership row.
func MemberOf(projectID string) string { return PrefixMember + projectID }

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Cell returns the partition holding every cell of one target row.
func Cell(projectID, targetID string) string {
	return PrefixProject + projectID + sep + PrefixTarget + targetID
}

// CellSK is the sort key of the cell in stage stageID.
func CellSK(stageID string) string { return PrefixTask + stageID }

// CellPartitionPrefix matches every cell partition of a project.
func CellPartitionPrefix(projectID string) string {
	return PrefixProject + projectID + sep + PrefixTarget
}

// ParseCell splits a cell partition key into its project and target ids.
func ParseCell(pk string) (projectID, targetID string, ok bool) {
	rest, found := strings.CutPrefix(pk, PrefixProject)
	if !found {
		return "", "", false
	}
	projectID, targetID, ok = strings.Cut(rest, sep+PrefixTarget)
	if !ok || projectID == "" || targetID == "" {
		return "", "", false
	}
	return projectID, targetID, true
}

// Assignee is the GSI1 partition of the cells assigned to userID.
func Assignee(userID string) string { return PrefixAssignee + userID }

// Due is the GSI1 sort key of an assigned cell. Cells without a due date
// are still indexed, after every dated cell.
func Due(date, projectID, targetID, stageID string) string {
	if date == "" {
		return PrefixNoDue + projectID + sep + targetID + sep + stageID
	}
	return PrefixDue + date + sep + projectID + sep + targetID + sep + stageID
}

// DueRange returns the inclusive GSI1 sort-key bounds selecting cells due
// between from and to (YYYY-MM-DD). An empty from starts at the earliest
// date and an empty to ends at the latest.
func DueRange(from, to string) (lo, hi string) {
	lo = PrefixDue + from
	if to == "" {
		return lo, PrefixDue + rangeEnd
	}
	return lo, PrefixDue + to + sep + rangeEnd
}

// Idempotency is the partition holding a claimed idempotency key.
func Idempotency(scope, key string) string {
	return PrefixIdempotency + scope + sep + key
}
