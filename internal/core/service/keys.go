package service

import (
	"github.com/wolvesgale/ToDo-Appli/internal/core/keys"
	"github.com/wolvesgale/ToDo-Appli/internal/core/ports"
)

func userKey(id string) ports.Key {
	return ports.Key{PK: keys.User(id), SK: keys.ProfileSK}
}

func projectKey(id string) ports.Key {
	return ports.Key{PK: keys.Project(id), SK: keys.MetadataSK}
}

func memberKey(projectID, userID string) ports.Key {
	return ports.Key{PK: keys.Project(projectID), SK: keys.Member(userID)}
}

func taskKey(projectID, taskID string) ports.Key {
	return ports.Key{PK: keys.Project(projectID), SK: keys.Task(taskID)}
}

func stageKey(projectID, stageID string) ports.Key {
	return ports.Key{PK: keys.Project(projectID), SK: keys.Stage(stageID)}
}

func targetKey(projectID, targetID string) ports.Key {
	return ports.Key{PK: keys.Project(projectID), SK: keys.Target(targetID)}
}

func cellKey(projectID, targetID, stageID string) ports.Key {
	return ports.Key{PK: keys.Cell(projectID, targetID), SK: keys.CellSK(stageID)}
}

func invitationKey(projectID, invitationID string) ports.Key {
	return ports.Key{PK: keys.Project(projectID), SK: keys.Invitation(invitationID)}
}

func notificationKey(userID, notificationID string) ports.Key {
	return ports.Key{PK: keys.User(userID), SK: keys.Notification(notificationID)}
}

func tenantKey(id string) ports.Key {
	return ports.Key{PK: keys.Tenant(id), SK: keys.MetadataSK}
}

func tenantMemberKey(tenantID, userID string) ports.Key {
	return ports.Key{PK: keys.Tenant(tenantID), SK: keys.Member(userID)}
}

func tenantProjectKey(tenantID, projectID string) ports.Key {
	return ports.Key{PK: keys.Tenant(tenantID), SK: keys.Project(projectID)}
}

func actionKey(projectID, key string) ports.Key {
	return ports.Key{PK: keys.Project(projectID), SK: keys.Action(key)}
}

// keyAttrs builds the key attribute map handed to toItem.
func keyAttrs(k ports.Key, gsi1pk, gsi1sk string) map[string]string {
	return map[string]string{
		ports.AttrPK:     k.PK,
		ports.AttrSK:     k.SK,
		ports.AttrGSI1PK: gsi1pk,
		ports.AttrGSI1SK: gsi1sk,
	}
}
