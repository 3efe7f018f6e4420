package biz

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// summarySystemNote 总结模型的系统提示
const summarySystemNote = "You are GenX AI, a supportive, expert fitness coach. " +
	"Summarize the user's full conversation in a fitness coaching context. " +
	"You must NOT provide any medical diagnosis or treatment for injuries. " +
	"Detect safety concerns (injuries, pain, unsafe practices) and reflect them as flags only. " +
	"Return STRICT JSON only. No markdown, no code fences, no extra text."

const summaryInstructions = "Analyze the following fitness coaching conversation transcript and combine it with the previous summary to create an updated summary. " +
	"The updated summary should reflect the user's fitness progress and current training state. " +
	"Focus on fitness goals, workout adherence, nutrition compliance, and progress discussed. " +
	"If a previous summary is provided, analyze the user's fitness progress over time in the 'progress_analysis' field. " +
	"Infer language if not explicit. " +
	"IMPORTANT - Fitness Metrics Analysis: " +
	"- 'energy_level' on a 0-100 scale representing workout energy and vitality. " +
	"- 'motivation_level' on a 0-100 scale representing training motivation. " +
	"- 'recovery_quality' as a descriptor (e.g., Well Rested, Sore, Fatigued). " +
	"- 'workout_adherence' describing training consistency (e.g., Consistent, Inconsistent, Improving). " +
	"- 'nutrition_compliance' describing diet adherence (e.g., On Track, Needs Improvement). " +
	"- 'form_quality_notes' capturing any exercise form discussions or corrections. " +
	"Sleep and Recovery: " +
	"- 'sleep_quality' as a descriptor (Rested/Okay/Poor) and 'sleep_duration_hours' as numeric value. " +
	"- 'hydration_level' describing hydration status. " +
	"- 'meal_timing_notes' capturing meal timing around workouts if discussed. " +
	"Workout and Nutrition Plans: " +
	"- If a workout plan was discussed/created, populate 'workoutPlan' with 'schedule' array and 'exercises' array. " +
	"- Each exercise must have 'day', and 'routines' array with objects containing 'name', 'sets' (NUMBER), 'reps' (NUMBER). " +
	"- If a nutrition plan was discussed/created, populate 'nutritionPlan' with 'dailyCalories' (NUMBER) and 'meals' array. " +
	"- Each meal must have 'name' and 'foods' array with food items as strings. " +
	"Safety Flags: " +
	"- 'mentions_injury_pain': true if user mentions pain or injury. " +
	"- 'unsafe_training_practices': true if dangerous exercise practices discussed. " +
	"- 'extreme_diet_mentioned': true if extreme or unhealthy diet practices mentioned. " +
	"- 'medical_consultation_recommended': true if medical consultation should be recommended. " +
	"Training Focus Areas: " +
	"Identify which training areas were emphasized in the session (strength_training, cardiovascular_fitness, flexibility_mobility, " +
	"nutrition_planning, injury_prevention, form_technique, progressive_overload, recovery_strategies). " +
	"Assign confidence scores (0.0-1.0) for each area. Only include areas with confidence > 0.6. " +
	"If information is not provided, set the corresponding field to null. " +
	"For workout and nutrition plans, only populate if explicitly discussed - otherwise leave as empty arrays. " +
	"Fill the provided JSON schema faithfully and only return the JSON object.\n\n"

// summarySchemaTemplate 字段顺序即示例顺序，两个 %s 为 JSON 编码后的 session_id 和生成时间
const summarySchemaTemplate = `{
  "session_id": %s,
  "generated_at_utc": %s,
  "language": "auto",
  "summary": "",
  "main_points": [],
  "fitness_topics_discussed": [],
  "goals_or_hopes": [],
  "action_items_suggested": [],
  "progress_analysis": "",
  "energy_level": 0,
  "recovery_quality": null,
  "workout_adherence": null,
  "motivation_level": 0,
  "form_quality_notes": null,
  "nutrition_compliance": null,
  "hydration_level": null,
  "meal_timing_notes": null,
  "sleep_quality": null,
  "sleep_duration_hours": null,
  "workoutPlan": {
    "schedule": [],
    "exercises": []
  },
  "nutritionPlan": {
    "dailyCalories": 0,
    "meals": []
  },
  "risk_flags": {
    "mentions_injury_pain": false,
    "unsafe_training_practices": false,
    "extreme_diet_mentioned": false,
    "medical_consultation_recommended": false
  },
  "suggestions": [],
  "training_focus_areas": [
    {
      "name": "strength_training",
      "confidence": 0.0
    },
    {
      "name": "cardiovascular_fitness",
      "confidence": 0.0
    },
    {
      "name": "flexibility_mobility",
      "confidence": 0.0
    }
  ]
}`

// buildSummaryPrompt 组装总结提示词
func buildSummaryPrompt(previousSummary, sessionID, generatedAt, transcript string) string {
	sid, _ := json.Marshal(sessionID)
	gen, _ := json.Marshal(generatedAt)
	schema := fmt.Sprintf(summarySchemaTemplate, sid, gen)

	return summaryInstructions +
		"PREVIOUS_SUMMARY:\n" + previousSummary + "\n\n" +
		"JSON_SCHEMA_EXAMPLE:\n" + schema + "\n\n" +
		"TRANSCRIPT:\n" + transcript
}

// buildQuestionPrompt 组装追问生成提示词，保留原始字段顺序
func buildQuestionPrompt(summaryData json.RawMessage) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, summaryData, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(summaryData)
	}
	return "Based on the following summary of a user's previous session, " +
		"generate 2-3 thoughtful, open-ended follow-up questions to help them continue discussing their fitness progress. " +
		"The questions should be encouraging, supportive, and in line with the persona of a fitness coach. " +
		"Frame them as natural conversation starters.\n\n" +
		"PREVIOUS SUMMARY:\n" + pretty.String() + "\n\n" +
		"QUESTIONS:"
}
