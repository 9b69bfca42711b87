// Command stundenplan is the planner's CLI: it validates school data,
// solves timetables, manages pins and scenarios, renders exports and runs
// the infeasibility diagnosis.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
	"github.com/sekundarstufe/stundenplan-core/internal/export"
	"github.com/sekundarstufe/stundenplan-core/internal/ingest"
	"github.com/sekundarstufe/stundenplan-core/internal/service"
	"github.com/sekundarstufe/stundenplan-core/internal/slotindex"
	"github.com/sekundarstufe/stundenplan-core/internal/solver"
	"github.com/sekundarstufe/stundenplan-core/internal/store"
	"github.com/sekundarstufe/stundenplan-core/pkg/config"
	"github.com/sekundarstufe/stundenplan-core/pkg/database"
	"github.com/sekundarstufe/stundenplan-core/pkg/logger"
)

const usage = `usage: stundenplan <command> [flags]

commands:
  solve      solve a timetable from a school data file
  validate   run the feasibility pre-check only
  relax      diagnose an infeasible instance via scoped relaxations
  template   write a starter school data file
  roster     import a teacher roster CSV into a school data file
  pin        add, remove or list pinned lessons
  export     render a solved timetable as PDF or CSV
  scenario   save, load or list named scenarios (requires database)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	var cmdErr error
	switch os.Args[1] {
	case "solve":
		cmdErr = runSolve(cfg, logr, os.Args[2:])
	case "validate":
		cmdErr = runValidate(cfg, logr, os.Args[2:])
	case "relax":
		cmdErr = runRelax(logr, os.Args[2:])
	case "template":
		cmdErr = runTemplate(os.Args[2:])
	case "roster":
		cmdErr = runRoster(os.Args[2:])
	case "pin":
		cmdErr = runPin(os.Args[2:])
	case "export":
		cmdErr = runExport(os.Args[2:])
	case "scenario":
		cmdErr = runScenario(cfg, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if cmdErr != nil {
		logr.Sugar().Fatalw("command failed", "command", os.Args[1], "error", cmdErr)
	}
}

func runSolve(cfg *config.Config, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	dataPath := fs.String("data", "school.json", "school data file (json or yaml)")
	outPath := fs.String("out", "solution.json", "solution output file")
	timeLimit := fs.Duration("time", 0, "override the configured time limit")
	diagnose := fs.Bool("diagnose", false, "run the relaxation diagnosis on INFEASIBLE")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := ingest.LoadSchoolData(*dataPath)
	if err != nil {
		return err
	}

	svc := service.NewSolveService(cfg.Solver, nil, nil, logr)
	resp, err := svc.Solve(context.Background(), data, data.Pins, service.SolveOptions{
		TimeLimit: *timeLimit,
		Diagnose:  *diagnose,
	})
	if err != nil {
		for _, e := range resp.Feasibility.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return err
	}

	sol := resp.Solution
	fmt.Printf("status: %s  entries: %d  objective: %.0f  wall time: %s\n",
		sol.Status, len(sol.Entries), sol.ObjectiveValue, sol.WallTime.Round(time.Millisecond))
	if resp.Diagnosis != nil {
		for _, r := range resp.Diagnosis.Results {
			fmt.Printf("relaxation %-20s %s (%s)\n", r.Name, r.Status, r.WallTime.Round(time.Millisecond))
		}
		fmt.Printf("recommendation: %s\n", resp.Diagnosis.Recommendation)
	}
	if !sol.IsUsable() {
		return ingest.SaveSolution(*outPath, sol)
	}
	if resp.Quality != nil {
		fmt.Printf("total gaps: %d\n", resp.Quality.TotalGaps)
		for _, s := range resp.Quality.RoomShortages {
			fmt.Printf("room shortage: %s\n", s)
		}
	}
	return ingest.SaveSolution(*outPath, sol)
}

func runValidate(cfg *config.Config, logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	dataPath := fs.String("data", "school.json", "school data file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := ingest.LoadSchoolData(*dataPath)
	if err != nil {
		return err
	}
	report := service.NewSolveService(cfg.Solver, nil, nil, logr).Validate(data)
	for _, e := range report.Errors {
		fmt.Printf("error: %s\n", e)
	}
	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if !report.OK() {
		return fmt.Errorf("%d blocking feasibility errors", len(report.Errors))
	}
	fmt.Println("ok")
	return nil
}

func runRelax(logr *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("relax", flag.ExitOnError)
	dataPath := fs.String("data", "school.json", "school data file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := ingest.LoadSchoolData(*dataPath)
	if err != nil {
		return err
	}
	slots := slotindex.Build(data.Grid)
	diag := solver.Diagnose(context.Background(), data, slots, data.Pins, logr)
	for _, r := range diag.Results {
		fmt.Printf("%-20s %-12s %s\n", r.Name, r.Status, r.WallTime.Round(time.Millisecond))
	}
	fmt.Printf("recommendation: %s\n", diag.Recommendation)
	return nil
}

func runTemplate(args []string) error {
	fs := flag.NewFlagSet("template", flag.ExitOnError)
	outPath := fs.String("out", "school.json", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	grid, err := domain.NewTimeGrid(5, 7, []int{2, 4})
	if err != nil {
		return err
	}
	data := &domain.SchoolData{
		Name: "Neue Schule",
		Grid: grid,
		Subjects: []domain.Subject{
			{Name: "Mathematik", Short: "M", Category: domain.CategoryHauptfach, IsMain: true},
			{Name: "Deutsch", Short: "D", Category: domain.CategoryHauptfach, IsMain: true},
			{Name: "Englisch", Short: "E", Category: domain.CategorySprache, IsMain: true},
			{Name: "Chemie", Short: "Ch", Category: domain.CategoryNW, RequiredRoomType: "chemie", DoubleRequired: true, DoublePreferred: true},
			{Name: "Sport", Short: "Sp", Category: domain.CategorySport, RequiredRoomType: "sporthalle", DoublePreferred: true},
		},
		Teachers: []domain.Teacher{
			{ID: "T01", Name: "Beispiel", Subjects: []string{"Mathematik", "Chemie"}, DeputatMin: 12, DeputatMax: 26, MaxHoursPerDay: 6},
		},
		Classes: []domain.SchoolClass{
			{ID: "5a", Name: "5a", Grade: 5, Curriculum: domain.Curriculum{"Mathematik": 4, "Deutsch": 4, "Englisch": 4}},
		},
		Rooms: []domain.Room{
			{ID: "R101", Name: "Raum 101", IsHome: true},
			{ID: "CH1", Name: "Chemiesaal", Type: "chemie"},
			{ID: "SH1", Name: "Sporthalle", Type: "sporthalle"},
		},
	}
	if err := data.Finalize(); err != nil {
		return err
	}
	if err := ingest.SaveSchoolData(*outPath, data); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *outPath)
	return nil
}

func runRoster(args []string) error {
	fs := flag.NewFlagSet("roster", flag.ExitOnError)
	csvPath := fs.String("csv", "teachers.csv", "roster CSV file")
	dataPath := fs.String("data", "school.json", "school data file to merge into")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	teachers, err := ingest.ImportTeacherRoster(f)
	if err != nil {
		return err
	}

	data, err := ingest.LoadSchoolData(*dataPath)
	if err != nil {
		return err
	}
	existing := map[string]bool{}
	for _, t := range data.Teachers {
		existing[t.ID] = true
	}
	added := 0
	for _, t := range teachers {
		if !existing[t.ID] {
			data.Teachers = append(data.Teachers, t)
			added++
		}
	}
	if err := data.Finalize(); err != nil {
		return err
	}
	if err := ingest.SaveSchoolData(*dataPath, data); err != nil {
		return err
	}
	fmt.Printf("imported %d teachers (%d new)\n", len(teachers), added)
	return nil
}

func runPin(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: stundenplan pin <add|remove|list> [flags]")
	}
	sub := args[0]
	fs := flag.NewFlagSet("pin "+sub, flag.ExitOnError)
	dataPath := fs.String("data", "school.json", "school data file")
	id := fs.String("id", "", "pin id (remove)")
	classID := fs.String("class", "", "class id (add)")
	subject := fs.String("subject", "", "subject name (add)")
	teacherID := fs.String("teacher", "", "teacher id (add)")
	day := fs.Int("day", 0, "day index, 0-based (add)")
	slot := fs.Int("slot", 1, "period, 1-based (add)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	data, err := ingest.LoadSchoolData(*dataPath)
	if err != nil {
		return err
	}

	switch sub {
	case "list":
		for _, p := range data.Pins {
			fmt.Printf("%-12s %s %s %s day=%d slot=%d\n", p.ID, p.ClassID, p.Subject, p.TeacherID, p.Day, p.Period)
		}
		return nil
	case "add":
		if *classID == "" || *subject == "" {
			return fmt.Errorf("pin add requires -class and -subject")
		}
		pin := domain.PinnedLesson{
			ID:        fmt.Sprintf("pin-%s-%s-%d-%d", strings.ToLower(*classID), strings.ToLower(*subject), *day, *slot),
			ClassID:   *classID,
			Subject:   *subject,
			TeacherID: *teacherID,
			Day:       *day,
			Period:    *slot,
		}
		data.Pins = append(data.Pins, pin)
		if err := data.Validate(); err != nil {
			return err
		}
		fmt.Printf("added %s\n", pin.ID)
	case "remove":
		if *id == "" {
			return fmt.Errorf("pin remove requires -id")
		}
		kept := data.Pins[:0]
		removed := false
		for _, p := range data.Pins {
			if p.ID == *id {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		if !removed {
			return fmt.Errorf("no pin with id %q", *id)
		}
		data.Pins = kept
		fmt.Printf("removed %s\n", *id)
	default:
		return fmt.Errorf("unknown pin subcommand %q", sub)
	}
	return ingest.SaveSchoolData(*dataPath, data)
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	solPath := fs.String("solution", "solution.json", "solution file")
	format := fs.String("format", "pdf", "pdf or csv")
	outPath := fs.String("out", "", "output file (defaults to timetable.<format>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sol, err := ingest.LoadSolution(*solPath)
	if err != nil {
		return err
	}
	if sol.Snapshot == nil {
		return fmt.Errorf("solution carries no school data snapshot")
	}

	var raw []byte
	switch *format {
	case "pdf":
		raw, err = export.NewPDFExporter().Render(sol.Snapshot, sol)
	case "csv":
		raw, err = export.NewCSVExporter().Render(sol)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}

	target := *outPath
	if target == "" {
		target = "timetable." + *format
	}
	if err := os.WriteFile(target, raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", target)
	return nil
}

func runScenario(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: stundenplan scenario <save|load|list|delete> [flags]")
	}
	sub := args[0]
	fs := flag.NewFlagSet("scenario "+sub, flag.ExitOnError)
	name := fs.String("name", "", "scenario name")
	dataPath := fs.String("data", "school.json", "school data file")
	solPath := fs.String("solution", "", "optional solution file (save)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("scenario storage needs a database: %w", err)
	}
	defer db.Close()
	repo := store.NewScenarioRepository(db)
	ctx := context.Background()

	switch sub {
	case "save":
		if *name == "" {
			return fmt.Errorf("scenario save requires -name")
		}
		data, err := ingest.LoadSchoolData(*dataPath)
		if err != nil {
			return err
		}
		var sol *domain.Solution
		if *solPath != "" {
			if sol, err = ingest.LoadSolution(*solPath); err != nil {
				return err
			}
		}
		scenario, err := repo.SaveVersioned(ctx, *name, data, sol)
		if err != nil {
			return err
		}
		fmt.Printf("saved %s version %d\n", scenario.Name, scenario.Version)
	case "load":
		if *name == "" {
			return fmt.Errorf("scenario load requires -name")
		}
		scenario, err := repo.Latest(ctx, *name)
		if err != nil {
			return err
		}
		data, err := scenario.SchoolData()
		if err != nil {
			return err
		}
		if err := ingest.SaveSchoolData(*dataPath, data); err != nil {
			return err
		}
		fmt.Printf("loaded %s version %d into %s\n", scenario.Name, scenario.Version, *dataPath)
	case "list":
		list, err := repo.ListNames(ctx)
		if err != nil {
			return err
		}
		for _, s := range list {
			fmt.Printf("%-24s v%-4d %s\n", s.Name, s.Version, s.CreatedAt.Format(time.RFC3339))
		}
	case "delete":
		if *name == "" {
			return fmt.Errorf("scenario delete requires -name")
		}
		if err := repo.Delete(ctx, *name); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", *name)
	default:
		return fmt.Errorf("unknown scenario subcommand %q", sub)
	}
	return nil
}
