package tasks

import "solarharvest/internal/models"

// Expand produces one task per (observation, channel) pair: for each
// observation in order, every channel in order
func Expand(observations []models.Observation, channels []models.Channel) []models.Task {
	out := make([]models.Task, 0, len(observations)*len(channels))
	for _, obs := range observations {
		for _, ch := range channels {
			out = append(out, models.Task{Timestamp: obs.Timestamp, Channel: ch})
		}
	}
	return out
}
