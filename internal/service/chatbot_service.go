package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// ChatTopic identifies a canned assistant answer.
type ChatTopic string

const (
	TopicCourses      ChatTopic = "courses"
	TopicAdmission    ChatTopic = "admission"
	TopicFacilities   ChatTopic = "facilities"
	TopicContact      ChatTopic = "contact"
	TopicEvents       ChatTopic = "events"
	TopicAchievements ChatTopic = "achievements"
)

// ChatReply is the assistant's answer with quick follow-up options.
type ChatReply struct {
	Topic   ChatTopic `json:"topic,omitempty"`
	Text    string    `json:"text"`
	Options []string  `json:"options,omitempty"`
}

type chatAnswer struct {
	text     string
	options  []string
	keywords []string
}

var chatAnswers = map[ChatTopic]chatAnswer{
	TopicCourses: {
		text: "We offer a wide range of programs including:\n\n" +
			"- Computer Science & Engineering\n- Business Administration\n- Mechanical Engineering\n" +
			"- Electrical Engineering\n- Civil Engineering\n- Data Science & Analytics\n\n" +
			"Each program includes hands-on training, industry projects, and placement assistance.",
		options:  []string{"View Course Details", "Check Eligibility", "Fee Structure"},
		keywords: []string{"course", "program", "degree", "study", "major", "engineering"},
	},
	TopicAdmission: {
		text: "Our admission process is simple and straightforward:\n\n" +
			"1. Fill out the online application form\n2. Upload required documents\n3. Pay the application fee\n" +
			"4. Attend a counseling session\n5. Receive admission confirmation\n\n" +
			"Application deadline: March 31st. Entrance exam: April 15th.",
		options:  []string{"Apply Now", "Required Documents", "Important Dates"},
		keywords: []string{"admission", "apply", "application", "enroll", "deadline", "entrance"},
	},
	TopicFacilities: {
		text: "Our modern campus features:\n\n" +
			"- State-of-the-art classrooms\n- Central library with 50K+ books\n- Computer labs with the latest technology\n" +
			"- Sports complex & gymnasium\n- Modern cafeteria\n- Student hostels\n- Parking facilities\n- Wi-Fi campus",
		options:  []string{"Virtual Tour", "Hostel Details", "Sports Facilities"},
		keywords: []string{"facility", "facilities", "campus", "library", "hostel", "lab", "sports"},
	},
	TopicContact: {
		text: "Get in touch with us:\n\n" +
			"Address: 123 Education Street, Knowledge City\nPhone: +1 (555) 123-4567\n" +
			"Email: info@smartadmission.edu\nAdmissions: admissions@smartadmission.edu",
		options:  []string{"Visit Campus", "Schedule Meeting", "Send Email"},
		keywords: []string{"contact", "phone", "email", "address", "reach", "call"},
	},
	TopicEvents: {
		text: "Upcoming events and activities:\n\n" +
			"- Fresher's Welcome: January 15th\n- Tech Fest: February 20-22\n- Annual Sports Meet: March 10-15\n" +
			"- Cultural Fest: April 5-7\n- Career Fair: April 20th\n- Graduation Ceremony: May 25th",
		options:  []string{"Register for Events", "Event Schedule", "Club Activities"},
		keywords: []string{"event", "fest", "fair", "ceremony", "schedule", "activities"},
	},
	TopicAchievements: {
		text: "Our proud achievements:\n\n" +
			"- 95% Placement Rate\n- 5000+ Alumni Worldwide\n- 50+ Research Papers Published\n" +
			"- 25+ Industry Partnerships\n- Best Educational Institution Award\n- 98% Student Satisfaction",
		options:  []string{"Alumni Success Stories", "Research Highlights", "Industry Partnerships"},
		keywords: []string{"achievement", "placement", "ranking", "alumni", "research", "award"},
	},
}

const chatFallback = "Thank you for your message! Our team will get back to you soon. " +
	"For immediate assistance, please check our frequently asked questions or contact us directly."

// ChatbotService answers visitor questions from a fixed set of topics.
type ChatbotService struct {
	logger *zap.Logger
}

// NewChatbotService constructs a ChatbotService.
func NewChatbotService(logger *zap.Logger) *ChatbotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatbotService{logger: logger}
}

// Topics lists the quick-query topics in display order.
func (s *ChatbotService) Topics() []ChatTopic {
	return []ChatTopic{TopicCourses, TopicAdmission, TopicFacilities, TopicContact, TopicEvents, TopicAchievements}
}

// Reply answers either a quick-query topic or a free-text message. Topic
// lookups win; free text falls back to keyword matching, then to a generic
// acknowledgement.
func (s *ChatbotService) Reply(ctx context.Context, topic, message string) *ChatReply {
	if topic != "" {
		if answer, ok := chatAnswers[ChatTopic(topic)]; ok {
			return &ChatReply{Topic: ChatTopic(topic), Text: answer.text, Options: answer.options}
		}
	}

	lowered := strings.ToLower(message)
	for _, t := range s.Topics() {
		answer := chatAnswers[t]
		for _, keyword := range answer.keywords {
			if strings.Contains(lowered, keyword) {
				return &ChatReply{Topic: t, Text: answer.text, Options: answer.options}
			}
		}
	}

	s.logger.Debug("chat fallback", zap.String("message", message))
	return &ChatReply{Text: chatFallback}
}
