// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/fsmemo/internal/meta"
)

const bashCompletionScript = `# bash completion for fsmemo
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_fsmemo_names()
{
    local dir=${FSMEMO_CACHE_DIR:-${TMPDIR:-/tmp}/cache}
    [[ -d "$dir" ]] && command ls -1 "$dir" 2>/dev/null
}

_fsmemo()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "ls evict purge sum slot completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--cache-dir -d --tldr"
    local listing="$common --attrs -a --color -c --filter -f --output -o --sort -s --titles -t --schema"

    case "$cmd" in
        ls)
            local opts="$listing"
            ;;
        evict)
            local opts="$common"
            ;;
        purge)
            local opts="$common --hours"
            ;;
        sum)
            local opts="$common --refresh -r"
            ;;
        slot)
            local opts="$listing --raw"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--cache-dir" || "$prev" == "-d" ]]; then
        COMPREPLY=( $(compgen -o dirnames -- "$cur") )
        return 0
    fi

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    case "$cmd" in
        sum)
            COMPREPLY=( $(compgen -f -- "$cur") )
            ;;
        ls|evict|slot)
            COMPREPLY=( $(compgen -W "$(_fsmemo_names)" -- "$cur") )
            ;;
    esac
    return 0
}

complete -F _fsmemo fsmemo
`

const zshCompletionScript = `#compdef fsmemo

_fsmemo_names() {
  local dir=${FSMEMO_CACHE_DIR:-${TMPDIR:-/tmp}/cache}
  local -a names
  [[ -d $dir ]] && names=(${dir}/*(N/:t))
  _describe -t names 'computations' names
}

_fsmemo() {
  local -a cmds
  cmds=(
    'ls:list cached slots'
    'evict:remove every slot of the named computations'
    'purge:remove cached artifacts older than a number of hours'
    'sum:sum the integer lines of files, caching the result'
    'slot:resolve the slot for a computation name and key material'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-d --cache-dir)'{-d,--cache-dir}'[cache root directory]:dir:_directories'
  '--tldr[show tldr page]'
  )

  local -a listing
  listing=(
  $common
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--schema[dump schema]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'fsmemo commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    ls)
      _arguments -C $listing '*:name:_fsmemo_names'
      ;;
    evict)
      _arguments -C $common '*:name:_fsmemo_names'
      ;;
    purge)
      _arguments -C $common '--hours[age in hours]:hours'
      ;;
    sum)
      _arguments -C $common \
        '(-r --refresh)'{-r,--refresh}'[evict before computing]' \
        '*:file:_files'
      ;;
    slot)
      _arguments -C $listing \
        '--raw[use the material as the file name]' \
        '1:name:_fsmemo_names' \
        '2:material'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _fsmemo fsmemo
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	if shell == "" {
		// Try to detect from SHELL.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	w := writer(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		return errors.New("usage: fsmemo completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "fsmemo completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
