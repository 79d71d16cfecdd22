package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"commonDue/internal/config"
	"commonDue/internal/errs"
	"commonDue/internal/etsched"
	"commonDue/internal/logger"
	"commonDue/internal/metrics"
	"commonDue/internal/report"
	"commonDue/internal/run"
)

func main() {
	var (
		jobsPath   = flag.String("jobs", "", "CSV-таблица работ: p,alpha,beta по строке на работу")
		due        = flag.Float64("due", -1, "общий директивный срок D")
		name       = flag.String("name", "", "имя экземпляра для выходных файлов (по умолчанию имя файла)")
		cfgPath    = flag.String("config", "", "YAML-конфигурация (пусто — значения по умолчанию)")
		seed       = flag.Int64("seed", 1, "сид генератора случайных чисел")
		outDir     = flag.String("out", "artifacts", "каталог для выходных файлов")
		xlsx       = flag.Bool("xlsx", true, "сохранять книгу XLSX")
		metricsOut = flag.String("metrics", "", "файл для выгрузки метрик Prometheus (textfile)")
		strict     = flag.Bool("strict_config", false, "требовать в конфигурации все ключи")
	)
	flag.Parse()

	if *jobsPath == "" || *due < 0 {
		fmt.Fprintln(os.Stderr, "нужно задать -jobs и -due >= 0")
		flag.Usage()
		os.Exit(2)
	}

	load := config.Load
	if *strict {
		load = config.LoadStrict
	}
	cfg, err := load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
		os.Exit(2)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка настройки журнала:", err)
		os.Exit(2)
	}
	log := logger.Component("main")
	metrics.RegisterDefault()

	inst, err := etsched.LoadInstance(*jobsPath, *due)
	if err != nil {
		log.Error().Err(err).Str("jobs", *jobsPath).Msg("invalid instance")
		os.Exit(2)
	}
	instName := *name
	if instName == "" {
		instName = strings.TrimSuffix(filepath.Base(*jobsPath), filepath.Ext(*jobsPath))
	}

	p, err := run.New(cfg, *seed)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := p.Run(ctx, inst)
	if err != nil {
		log.Error().Err(err).Str("code", string(errs.CodeOf(err))).Msg("run failed")
		code := 1
		if errs.IsInstanceClass(err) {
			code = 2
		}
		stop()
		os.Exit(code)
	}

	stem := filepath.Join(*outDir, rep.RunID[:8]+"_"+run.Stem(instName, cfg))
	if err := writeOutputs(stem, rep, inst, instName, *xlsx); err != nil {
		log.Error().Err(err).Str("out", *outDir).Msg("export failed")
		os.Exit(1)
	}
	if *metricsOut != "" {
		if err := metrics.WriteTextfile(*metricsOut); err != nil {
			log.Error().Err(err).Msg("metrics export failed")
			os.Exit(1)
		}
	}

	fmt.Printf("objective=%.4f on_time=%d offset=%.4f sequence=%v\n",
		rep.Final.Objective, rep.Final.OnTime, rep.Offset, rep.Final.Sequence)
	fmt.Println("Saved:", stem+"*")
}

func writeOutputs(stem string, rep *run.Report, inst *etsched.Instance, instName string, xlsx bool) error {
	if err := report.WriteAnnealingCSV(stem+"_sa.csv", rep.Annealing.Trace); err != nil {
		return err
	}
	if err := report.WriteRefinementCSV(stem+"_fo.csv", rep.Refinement.Trace); err != nil {
		return err
	}
	if err := report.WriteScheduleCSV(stem+"_schedule.csv", inst, rep.Final.Sequence, rep.Offset); err != nil {
		return err
	}
	if !xlsx {
		return nil
	}
	return report.WriteWorkbook(stem+".xlsx", rep.Workbook(instName, inst, report.CollectSysInfo()))
}
