package cmd

import (
	"guidesearch/internal/tui"
)

func runTUI() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pipeline, err := newPipeline(st)
	if err != nil {
		return err
	}
	engine, err := newEngine(st)
	if err != nil {
		return err
	}

	return tui.Run(tui.Config{
		Synchronizer: newSynchronizer(),
		Pipeline:     pipeline,
		Engine:       engine,
		AccountURL:   cfg.Store.AccountURL,
		Container:    cfg.Store.Container,
	})
}
