package notify

import "time"

type UserActionPayload struct {
	UserID                     string    `json:"userId"`
	User                       any       `json:"user"`
	Timestamp                  time.Time `json:"timestamp"`
	Action                     string    `json:"action"`
	SessionTakeover            *bool     `json:"sessionTakeover,omitempty"`
	PreviousSessionInvalidated *bool     `json:"previousSessionInvalidated,omitempty"`
}

type SessionTakeoverPayload struct {
	Message          string    `json:"message"`
	Timestamp        time.Time `json:"timestamp"`
	NewLoginLocation string    `json:"newLoginLocation"`
}

type StatsUpdatedPayload struct {
	ProjectID string    `json:"projectId"`
	TaskStats any       `json:"taskStats"`
	Progress  int       `json:"progress"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func UserLoggedIn(userID string, user any, takeover bool, at time.Time) Event {
	return Event{
		Channel: ChannelUserUpdates,
		Name:    EventUserLoggedIn,
		Data: UserActionPayload{
			UserID:                     userID,
			User:                       user,
			Timestamp:                  at,
			Action:                     "LOGIN",
			SessionTakeover:            &takeover,
			PreviousSessionInvalidated: &takeover,
		},
	}
}

func UserLoggedOut(userID string, user any, at time.Time) Event {
	return userAction(EventUserLoggedOut, "LOGOUT", userID, user, at)
}

func PasswordChanged(userID string, user any, at time.Time) Event {
	return userAction(EventPasswordChanged, "PASSWORD_CHANGED", userID, user, at)
}

func UserCreated(userID string, user any, at time.Time) Event {
	return userAction(EventUserCreated, "CREATE", userID, user, at)
}

func UserDeleted(userID string, user any, at time.Time) Event {
	return userAction(EventUserDeleted, "DELETE", userID, user, at)
}

func userAction(name, action, userID string, user any, at time.Time) Event {
	return Event{
		Channel: ChannelUserUpdates,
		Name:    name,
		Data: UserActionPayload{
			UserID:    userID,
			User:      user,
			Timestamp: at,
			Action:    action,
		},
	}
}

// SessionTakeover is addressed to the superseded user's own channel so that the
// other client can react before its token stops verifying.
func SessionTakeover(userID, location string, at time.Time) Event {
	if location == "" {
		location = "unknown"
	}
	return Event{
		Channel: UserChannel(userID),
		Name:    EventSessionTakeover,
		Data: SessionTakeoverPayload{
			Message:          "Your session was ended because your account signed in from another location.",
			Timestamp:        at,
			NewLoginLocation: location,
		},
	}
}

// CountsUpdated carries the aggregate user counts.
func CountsUpdated(counts any) Event {
	return Event{
		Channel: ChannelUserCounts,
		Name:    EventCountsUpdated,
		Data:    counts,
	}
}

func StatsUpdated(projectID string, taskStats any, progress int, status string, at time.Time) Event {
	return Event{
		Channel: ChannelProjectUpdates,
		Name:    EventStatsUpdated,
		Data: StatsUpdatedPayload{
			ProjectID: projectID,
			TaskStats: taskStats,
			Progress:  progress,
			Status:    status,
			Timestamp: at,
		},
	}
}
