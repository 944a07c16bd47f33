package marketplace

// Authorization predicates. Every mutating operation evaluates them before touching state.

func IsOwner(owner, id string) bool {
	return owner != "" && id == owner
}

func IsClient(job Job, id string) bool {
	return id != "" && job.Client == id
}

func IsFreelancer(job Job, id string) bool {
	return job.HasFreelancer() && job.Freelancer == id
}

func IsParticipant(job Job, id string) bool {
	return IsClient(job, id) || IsFreelancer(job, id)
}
