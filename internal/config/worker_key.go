package config

type WorkerKeyStruct struct {
	AutoSubmitQueue    string
	PersistScoresQueue string
	ActivityQueue      string
}

var WorkerKey = &WorkerKeyStruct{
	AutoSubmitQueue:    "autosubmit_queue",
	PersistScoresQueue: "persist_scores_queue",
	ActivityQueue:      "activity_queue",
}
