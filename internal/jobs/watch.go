package jobs

// Watch subscribes to state changes of a job. The returned channel receives
// a snapshot after every update and is closed when the job reaches a
// terminal state. Slow receivers may miss intermediate updates; the final
// state is always available via Get.
//
// cancel only unregisters the channel; it never closes it. Closing is owned
// exclusively by the queue's terminal transition, so an update in flight can
// never send on a channel a cancelling subscriber just closed.
func (q *Queue) Watch(jobID string) (<-chan Job, func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return nil, nil, false
	}

	ch := make(chan Job, 16)
	if job.Status.terminal() {
		// Deliver the final state immediately; nothing further will come.
		ch <- *job
		close(ch)
		return ch, func() {}, true
	}

	q.watchers[jobID] = append(q.watchers[jobID], ch)
	cancel := func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		list := q.watchers[jobID]
		for i, c := range list {
			if c == ch {
				q.watchers[jobID] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
	return ch, cancel, true
}
