package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manasv777/investiq-hacknc/internal/config"
	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	"github.com/manasv777/investiq-hacknc/internal/observability/logger"
	"github.com/manasv777/investiq-hacknc/internal/onboarding"
	"github.com/manasv777/investiq-hacknc/internal/voice"
	"github.com/manasv777/investiq-hacknc/internal/wizard"
)

type cli struct {
	app        *app
	configPath string
	asJSON     bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "investiq",
		Short:         "Wizard de apertura de cuenta InvestIQ",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadDotEnv()
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			// stderr y warn: la salida del wizard queda limpia
			level := cfg.App.LogLevel
			if level == "" {
				level = "warn"
			}
			logger.Init(logger.Config{Env: "dev", Level: level, Output: []string{"stderr"}})

			a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a.asJSON = c.asJSON
			c.app = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			defer func() { _ = logger.Sync() }()
			return c.app.close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", os.Getenv("CONFIG_PATH"), "path a config.yaml (env CONFIG_PATH)")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "salida en JSON")

	root.AddCommand(
		c.initCmd(),
		c.showCmd(),
		c.setCmd(),
		c.nextCmd(),
		c.backCmd(),
		c.submitCmd(),
		c.chatCmd(),
		c.explainCmd(),
		c.transcriptCmd(),
		c.revealCmd(),
		c.resetCmd(),
		c.kycCmd(),
		c.riskCmd(),
		c.scanCmd(),
		c.speakCmd(),
		c.dashboardCmd(),
	)
	return root
}

func (c *cli) initCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Empezar una sesión nueva en el paso A",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			fromConfig := user == "" && a.cfg.Client.UserID != ""
			if fromConfig {
				user = a.cfg.Client.UserID
			}
			if err := a.store.Initialize(cmd.Context(), user); err != nil {
				return err
			}
			if fromConfig {
				if _, err := a.store.SyncConfigIdentity(cmd.Context(), user); err != nil {
					return err
				}
			}
			if _, err := a.bridge.Welcome(cmd.Context()); err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(stateView(a.store.Snapshot()))
			}
			rec := a.store.Record()
			fmt.Fprintf(a.out, "session %s started at step %s (%s)\n", rec.SessionID, rec.CurrentStep, rec.CurrentStep.Title())
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "identidad a asociar a la sesión")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Mostrar el paso actual y los datos cargados",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := c.app
			st := a.store.Snapshot()
			if a.asJSON {
				return a.printJSON(stateView(st))
			}
			renderState(a.out, st)
			return nil
		},
	}
}

func (c *cli) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Cargar campos del formulario (nombres JSON, ej. firstName=Alex)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			values, err := parseAssignments(args)
			if err != nil {
				return err
			}
			p, err := onboarding.PatchFromStrings(values)
			if err != nil {
				return err
			}
			if err := a.store.UpdateFields(cmd.Context(), p); err != nil {
				return err
			}
			rec := a.store.Record()
			missing := onboarding.MissingFields(rec.CurrentStep, rec.Fields)
			if len(missing) == 0 {
				fmt.Fprintf(a.out, "updated %s; step %s is ready\n", strings.Join(p.Keys(), ", "), rec.CurrentStep)
				return nil
			}
			fmt.Fprintf(a.out, "updated %s; step %s still needs %s\n", strings.Join(p.Keys(), ", "), rec.CurrentStep, strings.Join(missing, ", "))
			return nil
		},
	}
}

func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func (c *cli) nextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Completar el paso actual y avanzar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			res, err := a.wizard.Advance(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
}

func (c *cli) backCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "back",
		Short: "Volver al paso anterior",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			res, err := a.wizard.Retreat(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(res)
		},
	}
}

func (c *cli) submitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Enviar la solicitud desde el paso de revisión",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			err := a.wizard.Submit(cmd.Context())
			switch {
			case errors.Is(err, wizard.ErrNotAtReview):
				return fmt.Errorf("submit is only available at step %s (%s)", onboarding.LastStep, onboarding.LastStep.Title())
			case err != nil:
				return err
			}
			rec := a.store.Record()
			fmt.Fprintf(a.out, "application %s: %s\n", rec.SessionID, rec.ApplicationStatus)
			return nil
		},
	}
}

func (c *cli) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat message...",
		Short: "Hablar con el asistente",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			reply, err := a.bridge.Send(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.printReply(reply)
		},
	}
}

func (c *cli) explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain topic...",
		Short: "Pedir una explicación breve de un término",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			reply, err := a.bridge.Explain(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.printReply(reply)
		},
	}
}

func (c *cli) transcriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcript",
		Short: "Mostrar la conversación con el asistente",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := c.app
			st := a.store.Snapshot()
			msgs := st.Transcript
			if !st.RevealPrivate {
				msgs = make([]onboarding.ChatMessage, len(st.Transcript))
				for i, m := range st.Transcript {
					m.Content = onboarding.MaskSensitive(m.Content)
					msgs[i] = m
				}
			}
			if a.asJSON {
				return a.printJSON(msgs)
			}
			for _, m := range msgs {
				fmt.Fprintf(a.out, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), m.Role, m.Content)
			}
			return nil
		},
	}
}

func (c *cli) revealCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "reveal on|off",
		Short:     "Mostrar u ocultar DOB, SSN y datos sensibles del chat",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			var reveal bool
			switch args[0] {
			case "on":
				reveal = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			if err := a.store.SetPrivacyReveal(cmd.Context(), reveal); err != nil {
				return err
			}
			if reveal {
				fmt.Fprintln(a.out, "sensitive data visible")
			} else {
				fmt.Fprintln(a.out, "sensitive data masked")
			}
			return nil
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Descartar la sesión actual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if err := a.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "session reset; new session %s\n", a.store.Record().SessionID)
			return nil
		},
	}
}

func (c *cli) kycCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kyc",
		Short: "Abrir la verificación de identidad",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			ks, err := a.wizard.RequestKYC(cmd.Context(), a.api)
			if err != nil {
				return fmt.Errorf("identity verification: %w", err)
			}
			if a.asJSON {
				return a.printJSON(ks)
			}
			fmt.Fprintf(a.out, "verification %s (%s): open %s\n", ks.ExternalID, ks.Status, ks.URL)
			return nil
		},
	}
}

func (c *cli) riskCmd() *cobra.Command {
	answers := map[string]*string{}
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Cuestionario de tolerancia al riesgo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			given := map[string]string{}
			for id, v := range answers {
				if *v != "" {
					given[id] = *v
				}
			}
			if len(given) == 0 {
				if a.asJSON {
					return a.printJSON(onboarding.RiskQuestions)
				}
				for _, q := range onboarding.RiskQuestions {
					fmt.Fprintf(a.out, "--%s  %s\n", q.ID, q.Question)
					for _, o := range q.Options {
						fmt.Fprintf(a.out, "      %-12s %s\n", o.Value, o.Label)
					}
				}
				return nil
			}
			score, tolerance, err := a.wizard.ScoreRisk(cmd.Context(), given)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "risk score %d: %s\n", score, tolerance)
			return nil
		},
	}
	for _, q := range onboarding.RiskQuestions {
		answers[q.ID] = cmd.Flags().String(q.ID, "", q.Question)
	}
	return cmd
}

func (c *cli) scanCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Comparar el texto reconocido de un documento con los datos cargados",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			rec := a.store.Record()
			res, err := a.api.ScanDocument(cmd.Context(), dto.OCRScanRequest{
				Text:    string(raw),
				Name:    strings.TrimSpace(rec.FirstName + " " + rec.LastName),
				DOB:     rec.DOB,
				Address: strings.TrimSpace(strings.Join([]string{rec.Street, rec.City, rec.State, rec.Zip}, " ")),
			})
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(res)
			}
			verdict := "needs review"
			if res.Passed {
				verdict = "consistent"
			}
			fmt.Fprintf(a.out, "document score %d (%s)\n", res.Match.Score, verdict)
			if len(res.Match.Mismatches) > 0 {
				fmt.Fprintf(a.out, "mismatches: %s\n", strings.Join(res.Match.Mismatches, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "archivo con el texto reconocido")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (c *cli) speakCmd() *cobra.Command {
	var out, voiceID string
	cmd := &cobra.Command{
		Use:   "speak text...",
		Short: "Sintetizar audio de un texto",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			audio, err := a.api.Speak(cmd.Context(), strings.Join(args, " "), voiceID)
			if errors.Is(err, voice.ErrNoAudio) {
				fmt.Fprintln(a.out, "no audio returned")
				return nil
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, audio.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "wrote %d bytes (%s) to %s\n", len(audio.Data), audio.ContentType, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "speech.mp3", "archivo de salida")
	cmd.Flags().StringVar(&voiceID, "voice", "", "voz a usar (default del servicio)")
	return cmd
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Métricas agregadas del onboarding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			sum, err := a.api.Analytics(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(sum)
			}
			renderSummary(a.out, sum)
			return nil
		},
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
