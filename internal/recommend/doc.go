// MindHangar - AI Model Lifecycle and Hybrid Content Recommendations
// Copyright 2026 Uday (uday68)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/uday68/mindhangar-sub001

// Package recommend implements a hybrid recommendation engine for learning
// content.
//
// # Architecture
//
// Three signals are blended with fixed weights into ranked, explained
// recommendations:
//
//   - Collaborative: user-based CF over a time-decayed interaction matrix
//   - Content: weighted subject/topic/difficulty/tag metadata similarity
//   - Model: embedding similarity, available only while the configured
//     inference artifact is loaded in memory
//
// When the model signal is unavailable its weight is not redistributed;
// scores degrade instead of renormalizing, so a blend computed without the
// model is bounded by the remaining signal weights.
//
// # Cold Start
//
// Learners with no interaction history receive popularity-ranked content
// weighted by profile overlap. Catalog failures never surface as errors
// from the Recommend methods; they produce empty results and are logged.
//
// # Usage
//
//	catalog := recommend.NewMemoryCatalog()
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), catalog, manager, logger)
//	if err != nil {
//	    return err
//	}
//	recs := engine.RecommendNext(ctx, profile, 10)
//
// # Thread Safety
//
// The engine, matrix, and catalog are all safe for concurrent use.
// TrackInteraction is synchronous: once it returns, subsequent
// recommendation calls observe the new interaction.
package recommend
