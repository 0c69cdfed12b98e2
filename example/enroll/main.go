// Command enroll drives a full Steam mobile authenticator enrollment
// from the terminal, prompting for CAPTCHA/email/activation codes as
// Steam requests them.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kavutra/steamguard/authenticator"
	"github.com/kavutra/steamguard/enroll"
	"github.com/kavutra/steamguard/transport"
)

func main() {
	username := os.Getenv("STEAM_USERNAME")
	password := os.Getenv("STEAM_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("set STEAM_USERNAME and STEAM_PASSWORD")
	}

	doer := transport.New()
	driver := enroll.NewDriver(doer)
	state := enroll.NewEnrollState(username, password)
	reader := bufio.NewReader(os.Stdin)
	ctx := context.Background()

	for {
		ok, err := driver.Enroll(ctx, state)
		if err != nil {
			log.Fatalf("enroll: %v", err)
		}
		if ok {
			break
		}

		switch state.Phase() {
		case enroll.PhaseCaptcha:
			fmt.Printf("CAPTCHA required: %s\nAnswer: ", state.CaptchaURL)
			state.CaptchaText = readLine(reader)
		case enroll.PhaseEmailAuth:
			fmt.Printf("Email code required (domain %s): ", state.EmailDomain)
			state.EmailAuthText = readLine(reader)
		case enroll.PhaseTwoFactor:
			log.Fatal("account already has a different authenticator active")
		case enroll.PhaseActivation:
			fmt.Print("Check your email for the activation code: ")
			state.ActivationCode = readLine(reader)
		case enroll.PhaseFailed:
			log.Fatalf("enrollment failed: %s", state.Error)
		default:
			log.Fatalf("unexpected enrollment phase %s, error=%q", state.Phase(), state.Error)
		}
	}

	fmt.Println("Enrollment complete.")
	fmt.Println("Revocation code (keep this safe):", state.RevocationCode)
	fmt.Println("Secret key (hex):", state.SecretKey)

	secretKey, err := hex.DecodeString(state.SecretKey)
	if err != nil {
		log.Fatalf("decode secret: %v", err)
	}
	auth := authenticator.New(doer, secretKey, state.Serial(), state.DeviceID(), state.RevocationCode)
	code, err := auth.CalculateCode(ctx, true)
	if err != nil {
		log.Fatalf("calculate code: %v", err)
	}
	fmt.Println("Current login code:", code)

	state.Zero()
}

func readLine(r *bufio.Reader) string {
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
