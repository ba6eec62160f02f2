// Package sms is a mock SMS/OTP delivery service. Messages are logged rather
// than sent, and the fixed code 123456 is accepted for every number.
package sms

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
)

// MockOTPCode is the verification code accepted in mock mode.
const MockOTPCode = "123456"

// Result is the outcome of a delivery or verification attempt.
type Result struct {
	Success bool
	SID     string
	Status  string
	Message string
}

// FormatPhoneNumber normalizes a phone number to +91XXXXXXXXXX form.
func FormatPhoneNumber(phone string) string {
	var cleaned strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			cleaned.WriteRune(r)
		}
	}
	digits := cleaned.String()
	if !strings.HasPrefix(digits, "91") {
		digits = "91" + digits
	}
	return "+" + digits
}

// Send logs an SMS to the given phone and returns a fabricated message SID.
func Send(phone, message string) Result {
	formatted := FormatPhoneNumber(phone)
	log.Printf("SMS to %s: %s", formatted, message)
	return Result{
		Success: true,
		SID:     mockSID("SM"),
		Message: "SMS sent successfully (mock)",
	}
}

// SendOTP logs a verification request and returns a fabricated verification
// SID. The code to use is always MockOTPCode.
func SendOTP(phone string) Result {
	formatted := FormatPhoneNumber(phone)
	log.Printf("verification request for %s (mock mode, use code %s)", formatted, MockOTPCode)
	return Result{
		Success: true,
		SID:     mockSID("VE"),
		Message: fmt.Sprintf("Verification code sent successfully (mock - use code %s)", MockOTPCode),
	}
}

// VerifyOTP checks a code against the mock verification service.
func VerifyOTP(phone, code string) Result {
	if code == MockOTPCode {
		return Result{Success: true, Status: "approved", Message: "OTP verified successfully (mock)"}
	}
	return Result{Success: false, Status: "rejected", Message: "Invalid OTP"}
}

// SendRegistrationConfirmation notifies a newly registered donor or requester.
func SendRegistrationConfirmation(phone string, isDonor bool) Result {
	message := "Your blood request has been registered successfully. You will be notified when a donor is found."
	if isDonor {
		message = "Thank you for registering as a blood donor! Your contribution can save lives."
	}
	return Send(phone, message)
}

// SendDonorMatch tells a requester how many potential donors were found.
func SendDonorMatch(phone string, count int) Result {
	return Send(phone, fmt.Sprintf("Good news! %d potential donor(s) have been found for your blood request.", count))
}

// SendRequestNotification alerts a donor that a patient needs their blood type.
func SendRequestNotification(phone, bloodType string) Result {
	return Send(phone, fmt.Sprintf("Urgent: A patient needs your %s blood. Please check your donor dashboard for details.", bloodType))
}

func mockSID(prefix string) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 32)
	for i := range b {
		b[i] = hexDigits[rand.Intn(len(hexDigits))]
	}
	return prefix + string(b)
}
