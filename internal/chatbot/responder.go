// Package chatbot answers common patient questions from a fixed keyword table.
package chatbot

import (
	"fmt"
	"strings"

	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// ActionRequestLiveAdmin asks the client to hand the chat to a person
const ActionRequestLiveAdmin = "request_live_admin"

// HoursText is the reply for opening hours questions
const HoursText = "We are open Monday to Saturday, 8:00 AM to 6:00 PM. We are closed on Sundays and holidays."

type entry struct {
	keyword  string
	response string
}

// keywords is scanned in order; the first keyword contained in the message wins.
// Test, result, booking and payment topics come before opening hours, which
// come before general contact questions and short greetings.
var keywords = []entry{
	{"fasting", "Fasting tests such as FBS and lipid profile need 8 to 12 hours without food. Water is allowed. Please book an early morning slot."},
	{"result", "Test results are usually available within 24-48 hours. You will be notified when they are ready, and you can also check online through your patient portal."},
	{"medical certificate", "We issue various medical certificates including fitness certificates, sick leave certificates, and employment clearances. Please request through your patient dashboard."},
	{"blood test", "Our blood tests include complete blood count (₱350), lipid profile, blood sugar, liver function, and kidney function tests."},
	{"xray", "We provide digital X-ray services for chest, bone, and joint examinations. Price: ₱500, Duration: 15 minutes."},
	{"x-ray", "We provide digital X-ray services for chest, bone, and joint examinations. Price: ₱500, Duration: 15 minutes."},
	{"ultrasound", "High-resolution ultrasound imaging for abdominal, pelvic, and cardiac examinations. Price: ₱800, Duration: 30 minutes."},
	{"ecg", "Electrocardiogram testing for heart health monitoring. Price: ₱400, Duration: 20 minutes."},
	{"cancel", "To cancel an appointment, please login to your account and go to your dashboard, or call us at (043) 286-2531."},
	{"appointment", "To book an appointment, please login and visit our booking page, or call us at (043) 286-2531. You can book online 24/7."},
	{"book", "You can book appointments online through our website after logging in, or call (043) 286-2531."},
	{"financial assistance", "We offer various financial assistance options including HMO coverage, senior citizen discounts, PWD discounts, and flexible payment plans."},
	{"discount", "We offer senior citizen, PWD and student discounts as well as HMO coverage. Please bring a valid ID when you visit."},
	{"hmo", "We accept most HMO providers with up to 80% coverage. Please bring your HMO card and valid ID."},
	{"installment", "We offer flexible installment payment plans for expensive procedures. Please inquire at our reception."},
	{"payment", "We accept cash, GCash, PayMaya, bank transfers, credit cards, HMO, and cheque payments. We also offer installment options and financial assistance."},
	{"pay", "We accept cash, GCash, PayMaya, bank transfers, credit cards, HMO, and cheque payments. We also offer installment options and financial assistance."},
	{"hours", HoursText},
	{"open", HoursText},
	{"schedule", "Our laboratory is open Monday to Saturday, 8:00 AM to 6:00 PM. You can schedule appointments during these hours."},
	{"services", "We offer comprehensive laboratory services including blood tests, X-rays, ultrasound, ECG, microscopy, and genetic testing. Would you like details about any specific service?"},
	{"emergency", "For medical emergencies, please call 911 or go to the nearest emergency room. Our laboratory provides diagnostic services, not emergency care."},
	{"contact", "You can reach us at (043) 286-2531 or email info@maeslaboratory.com. We're also available through this chat during business hours."},
	{"phone", "You can reach us at (043) 286-2531 or email info@maeslaboratory.com. We're also available through this chat during business hours."},
	{"location", "We are located in Batangas City, Philippines. Please visit our contact page for the exact address and directions."},
	{"address", "We are located in Batangas City, Philippines. Please visit our contact page for the exact address and directions."},
	{"help", "I can help you with information about our services, booking appointments, payment options, test results, and general inquiries. What would you like to know?"},
	{"good morning", "Good morning! How can I help you today?"},
	{"good afternoon", "Good afternoon! What can I do for you?"},
	{"good evening", "Good evening! How may I assist you?"},
	{"hello", "Hello! Welcome to MAES Laboratory. How can I assist you today?"},
	{"hi", "Hi there! I'm here to help you with any questions about our laboratory services."},
}

// FAQs are listed when the user asks for frequently asked questions
var FAQs = []types.FAQ{
	{Question: "What are your operating hours?", Answer: "We are open Monday to Saturday, 8:00 AM to 6:00 PM. Closed on Sundays and holidays."},
	{Question: "How do I book an appointment?", Answer: "You can book online through our website after registration, or call us at (043) 286-2531."},
	{Question: "What payment methods do you accept?", Answer: "We accept cash, GCash, PayMaya, bank transfers, credit cards, HMO, and cheque payments."},
	{Question: "How long does it take to get test results?", Answer: "Most test results are available within 24-48 hours. Complex tests may take 3-5 days."},
	{Question: "Do you accept walk-in patients?", Answer: "Yes, but appointments are recommended for faster service and guaranteed availability."},
}

var defaultSuggestions = []string{
	"Book an appointment",
	"View our services",
	"Payment options",
	"Test results",
	"Operating hours",
	"Contact information",
	"Financial assistance",
	"Medical certificates",
}

var emptySuggestions = []string{"Hello", "Services", "Book appointment", "FAQ"}

var liveAdminPhrases = []string{"live admin", "human", "representative"}

// Respond answers one message. matched is false when the reply is the
// default suggestion list or the empty-message prompt.
func Respond(message string) (reply *types.ChatReply, matched bool) {
	msg := strings.ToLower(strings.TrimSpace(message))

	if msg == "" {
		return &types.ChatReply{Response: "Please type a message.", Suggestions: copyOf(emptySuggestions)}, false
	}

	if strings.Contains(msg, "faq") || strings.Contains(msg, "frequently asked") {
		return faqReply(), true
	}

	for _, phrase := range liveAdminPhrases {
		if strings.Contains(msg, phrase) {
			return &types.ChatReply{
				Response:    "I'm connecting you to a live administrator. Please provide your contact details and we'll have someone assist you within 15 minutes.",
				Suggestions: []string{},
				Action:      ActionRequestLiveAdmin,
			}, true
		}
	}

	for _, e := range keywords {
		if strings.Contains(msg, e.keyword) {
			return &types.ChatReply{Response: e.response, Suggestions: []string{}}, true
		}
	}

	return &types.ChatReply{
		Response:    "I'd be happy to help! Here are some things you can ask me about:",
		Suggestions: copyOf(defaultSuggestions),
	}, false
}

func faqReply() *types.ChatReply {
	var b strings.Builder
	b.WriteString("Here are our frequently asked questions:\n\n")
	for i, f := range FAQs {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n\n", i+1, f.Question, f.Answer)
	}
	faqs := make([]types.FAQ, len(FAQs))
	copy(faqs, FAQs)
	return &types.ChatReply{Response: b.String(), Suggestions: []string{}, FAQs: faqs}
}

func copyOf(s []string) []string {
	return append([]string(nil), s...)
}
