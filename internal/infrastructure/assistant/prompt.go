package assistant

import (
	"fmt"
	"strings"

	"github.com/midnightlabs/midnight/internal/core/domain"
)

const persona = `You are Midnight, a friendly and supportive assistant inside a life management app called "Midnight - Your Year Starts Now."

You help people:
- manage goals, tasks and habits
- keep up with life admin such as health, money, home and car upkeep
- stay motivated
- prioritise their time

Be warm without gushing, practical, and brief. Keep answers under 150 words unless asked for more. Use bullet points for lists and format any suggested tasks or reminders clearly. Close with a gentle question or suggestion when it fits.`

// buildPrompt renders the persona, the user's context and the message as one
// text prompt.
func buildPrompt(message string, actx *domain.AssistantContext) string {
	var b strings.Builder
	b.WriteString(persona)

	if actx != nil {
		if s := actx.Stats; s != nil {
			fmt.Fprintf(&b, "\n\nYear progress: %d%% complete (%d days in, %d remaining).", s.YearProgress, s.DaysElapsed, s.DaysRemaining)
			fmt.Fprintf(&b, "\nGoals: %d/%d completed.", s.GoalsCompleted, s.GoalsTotal)
			fmt.Fprintf(&b, "\nTasks today: %d done, %d due.", s.TasksCompletedToday, s.TasksDueToday)
			fmt.Fprintf(&b, "\nCombined habit streak: %d days.", s.HabitsStreak)
		}
		if len(actx.RecentGoals) > 0 {
			goals := make([]string, len(actx.RecentGoals))
			for i, g := range actx.RecentGoals {
				goals[i] = fmt.Sprintf("%s (%d%%)", g.Title, g.Progress)
			}
			b.WriteString("\n\nActive goals: " + strings.Join(goals, ", "))
		}
		if len(actx.RecentTasks) > 0 {
			tasks := make([]string, len(actx.RecentTasks))
			for i, t := range actx.RecentTasks {
				tasks[i] = t.Title
			}
			b.WriteString("\nOpen tasks: " + strings.Join(tasks, ", "))
		}
		if len(actx.UpcomingReminders) > 0 {
			reminders := make([]string, len(actx.UpcomingReminders))
			for i, r := range actx.UpcomingReminders {
				reminders[i] = r.Title
			}
			b.WriteString("\n\nUpcoming reminders: " + strings.Join(reminders, ", "))
		}
		if len(actx.Habits) > 0 {
			habits := make([]string, len(actx.Habits))
			for i, h := range actx.Habits {
				habits[i] = fmt.Sprintf("%s (%d day streak)", h.Title, h.Streak)
			}
			b.WriteString("\nHabits: " + strings.Join(habits, ", "))
		}
	}

	b.WriteString("\n\nUser: " + message + "\n\nAssistant:")
	return b.String()
}
