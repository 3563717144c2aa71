package domain

// Access policy for tasks and comments. The store itself trusts the caller's
// claimed identity, so every mutation path must consult these checks first.

// CanRead reports whether the requester may view the task.
// Public tasks are readable by anyone, including unauthenticated visitors.
func CanRead(task *Task, requester string) bool {
	if task == nil {
		return false
	}
	return task.IsPublic() || task.IsOwnedBy(requester)
}

// CanDeleteTask reports whether the requester may delete the task.
func CanDeleteTask(task *Task, requester string) bool {
	return task != nil && task.IsOwnedBy(requester)
}

// CanDeleteComment reports whether the requester may delete the comment.
func CanDeleteComment(comment *Comment, requester string) bool {
	return comment != nil && comment.IsAuthoredBy(requester)
}
