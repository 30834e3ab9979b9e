package ai

import (
	"fmt"
	"strings"

	"github.com/rfaulk/flicklist/internal/models"
)

const reminderSystemPrompt = "You are an AI designed to remind users of their tasks in a style that's sharp, direct, and infused with humor, reminiscent of a motivational coach who uses tough love."

const timingSystemPrompt = "You are a scheduling assistant that picks the best time of day to remind a user about a task, respecting their waking hours and work schedule. Respond with valid JSON only."

const breakdownSystemPrompt = "You are a task breakdown assistant. Break down tasks into clear, specific, actionable steps."

func buildReminderPrompt(task *models.Task) string {
	priority := "none"
	if task.Priority != nil {
		priority = string(*task.Priority)
	}
	tags := "none"
	if len(task.Tags) > 0 {
		tags = strings.Join(task.Tags, ", ")
	}
	description := task.Description
	if description == "" {
		description = "N/A"
	}

	return fmt.Sprintf(`Create a brief, engaging notification for this task:
Title: %s
Description: %s
Due Date: %s
Priority: %s
Tags: %s

Make it motivational and concise (under 70 characters). Focus on urgency and importance.`,
		task.Title, description, task.DueDate.Format("January 2, 2006"), priority, tags)
}

func buildTimingPrompt(task *models.Task, prefs *models.SchedulePreferences) string {
	priority := "none"
	if task.Priority != nil {
		priority = string(*task.Priority)
	}

	return fmt.Sprintf(`Recommend the best time of day to notify the user about this task.

Task: %s
Due Date: %s
Priority: %s

User schedule:
Wakes up at %s, goes to bed at %s. Works from %s to %s.

Respond with JSON of the form {"recommendedTime": "HH:mm", "reasoning": "...", "confidence": 0.0-1.0}.
The recommended time must fall between the wake and bed times.`,
		task.Title, task.DueDate.Format("January 2, 2006"), priority,
		prefs.WakeTime, prefs.BedTime, prefs.WorkStart, prefs.WorkEnd)
}

func buildBreakdownPrompt(task *models.Task) string {
	priority := "medium"
	if task.Priority != nil {
		priority = string(*task.Priority)
	}

	prompt := fmt.Sprintf(`Break down this todo task into exactly 3 specific, actionable steps:
Task: %s`, task.Title)
	if task.Description != "" {
		prompt += fmt.Sprintf("\nDescription: %s", task.Description)
	}
	prompt += fmt.Sprintf("\nPriority: %s", priority)
	return prompt
}
