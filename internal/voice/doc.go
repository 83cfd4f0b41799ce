// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice reads finalized narration aloud through an external command.
//
// CommandSpeaker is a stream.Observer. Register it on the controller and
// every successfully finalized narration is piped to the configured
// text-to-speech program.
//
//	speaker, err := voice.NewCommandSpeaker("espeak-ng")
//	ctrl := stream.New(renderer, stream.Options{Observers: []stream.Observer{speaker}})
package voice
