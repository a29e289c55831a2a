package constants

const (
	SessionStatusLobby    = "lobby"
	SessionStatusPlaying  = "playing"
	SessionStatusFinished = "finished"
)

const (
	GameModeIndividual = "individual"
	GameModeTeam       = "team"
)

const (
	KickReasonHost        = "removed_by_host"
	FinishReasonCompleted = "completed"
	FinishReasonHostGone  = "host_grace_expired"
)
