package pipeline

import "manualstudio/internal/jobs"

// stageProgress maps each stage to the progress checkpoint reported when it
// begins work. FINALIZE completes at 100 via the success transition.
var stageProgress = map[jobs.Stage]int{
	jobs.StageIngest:        5,
	jobs.StageExtractAudio:  15,
	jobs.StageTranscribe:    35,
	jobs.StageDetectScenes:  50,
	jobs.StageExtractFrames: 65,
	jobs.StageGenerateSteps: 80,
	jobs.StageGeneratePPTX:  95,
	jobs.StageFinalize:      100,

	jobs.StageGeneratePPTXOnly: 95,
}

// Progress returns the checkpoint for a stage.
func Progress(stage jobs.Stage) int {
	if p, ok := stageProgress[stage]; ok {
		return p
	}
	return 0
}
