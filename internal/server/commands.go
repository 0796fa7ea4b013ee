package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/halcyon-audio/mpdcore/internal/dispatch"
	"github.com/halcyon-audio/mpdcore/internal/idle"
	"github.com/halcyon-audio/mpdcore/internal/queue"
	"github.com/halcyon-audio/mpdcore/internal/session"
	"github.com/halcyon-audio/mpdcore/internal/song"
	"github.com/halcyon-audio/mpdcore/internal/tag"
)

// registerCommands populates t with the full command surface. Query/
// browse commands that require the out-of-scope database (find,
// search, list, lsinfo, listall, update, rescan, stored playlists)
// are registered so `commands`/`notcommands` introspection still
// lists them, but their handlers immediately report AckNoExist.
func registerCommands(t *dispatch.Table) {
	reg := func(name string, min, max int, perm dispatch.Permission, h dispatch.Handler) {
		t.Register(dispatch.Command{Name: name, MinArgs: min, MaxArgs: max, Permission: perm, Handler: h})
	}

	reg("ping", 0, 0, dispatch.PermRead, cmdPing)
	reg("status", 0, 0, dispatch.PermRead, cmdStatus)
	reg("currentsong", 0, 0, dispatch.PermRead, cmdCurrentSong)
	reg("stats", 0, 0, dispatch.PermRead, cmdStats)

	reg("add", 1, 1, dispatch.PermAdd, cmdAdd)
	reg("addid", 1, 2, dispatch.PermAdd, cmdAddID)
	reg("delete", 1, 1, dispatch.PermControl, cmdDelete)
	reg("deleteid", 1, 1, dispatch.PermControl, cmdDeleteID)
	reg("clear", 0, 0, dispatch.PermControl, cmdClear)
	reg("move", 2, 2, dispatch.PermControl, cmdMove)
	reg("moveid", 2, 2, dispatch.PermControl, cmdMoveID)
	reg("swap", 2, 2, dispatch.PermControl, cmdSwap)
	reg("swapid", 2, 2, dispatch.PermControl, cmdSwapID)
	reg("shuffle", 0, 1, dispatch.PermControl, cmdShuffle)
	reg("prio", 2, -1, dispatch.PermControl, cmdPrio)
	reg("prioid", 2, -1, dispatch.PermControl, cmdPrioID)

	reg("playlistinfo", 0, 1, dispatch.PermRead, cmdPlaylistInfo)
	reg("playlistid", 0, 1, dispatch.PermRead, cmdPlaylistID)
	reg("plchanges", 1, 1, dispatch.PermRead, cmdPlChanges)
	reg("plchangesposid", 1, 1, dispatch.PermRead, cmdPlChangesPosID)

	reg("play", 0, 1, dispatch.PermControl, cmdPlay)
	reg("playid", 0, 1, dispatch.PermControl, cmdPlayID)
	reg("stop", 0, 0, dispatch.PermControl, cmdStop)
	reg("pause", 0, 1, dispatch.PermControl, cmdPause)
	reg("next", 0, 0, dispatch.PermControl, cmdNext)
	reg("previous", 0, 0, dispatch.PermControl, cmdPrevious)
	reg("seek", 2, 2, dispatch.PermControl, cmdSeek)
	reg("seekid", 2, 2, dispatch.PermControl, cmdSeekID)
	reg("seekcur", 1, 1, dispatch.PermControl, cmdSeekCur)

	reg("repeat", 1, 1, dispatch.PermControl, cmdRepeat)
	reg("single", 1, 1, dispatch.PermControl, cmdSingle)
	reg("random", 1, 1, dispatch.PermControl, cmdRandom)
	reg("consume", 1, 1, dispatch.PermControl, cmdConsume)
	reg("crossfade", 1, 1, dispatch.PermControl, cmdCrossfade)
	reg("mixrampdb", 1, 1, dispatch.PermControl, cmdMixRampDB)
	reg("mixrampdelay", 1, 1, dispatch.PermControl, cmdMixRampDelay)
	reg("clearerror", 0, 0, dispatch.PermControl, cmdClearError)
	reg("replay_gain_status", 0, 0, dispatch.PermRead, cmdReplayGainStatus)
	reg("replay_gain_mode", 1, 1, dispatch.PermControl, cmdReplayGainMode)

	reg("setvol", 1, 1, dispatch.PermControl, cmdSetVol)
	reg("volume", 1, 1, dispatch.PermControl, cmdVolumeDelta)
	reg("outputs", 0, 0, dispatch.PermRead, cmdOutputs)
	reg("enableoutput", 1, 1, dispatch.PermAdmin, cmdEnableOutput)
	reg("disableoutput", 1, 1, dispatch.PermAdmin, cmdDisableOutput)
	reg("toggleoutput", 1, 1, dispatch.PermAdmin, cmdToggleOutput)

	reg("tagtypes", 0, 2, dispatch.PermRead, cmdTagTypes)
	reg("decoders", 0, 0, dispatch.PermRead, cmdDecoders)
	reg("commands", 0, 0, dispatch.PermRead, cmdCommands)
	reg("notcommands", 0, 0, dispatch.PermRead, cmdNotCommands)
	reg("urlhandlers", 0, 0, dispatch.PermRead, cmdURLHandlers)
	reg("config", 0, 0, dispatch.PermAdmin, cmdConfig)

	reg("subscribe", 1, 1, dispatch.PermRead, cmdSubscribe)
	reg("unsubscribe", 1, 1, dispatch.PermRead, cmdUnsubscribe)
	reg("channels", 0, 0, dispatch.PermRead, cmdChannels)
	reg("sendmessage", 2, 2, dispatch.PermControl, cmdSendMessage)
	reg("readmessages", 0, 0, dispatch.PermRead, cmdReadMessages)

	reg("password", 1, 1, dispatch.PermNone, cmdPassword)
	reg("kill", 0, 0, dispatch.PermAdmin, cmdKill)
	reg("close", 0, 0, dispatch.PermNone, cmdClose)

	for _, name := range []string{"find", "search", "list", "lsinfo", "listall", "listallinfo",
		"update", "rescan", "listplaylist", "listplaylistinfo", "listplaylists", "load", "save",
		"rm", "rename", "playlistadd", "playlistclear", "playlistdelete", "playlistmove",
		"playlistfind", "playlistsearch", "listfiles", "count", "sticker"} {
		reg(name, 0, -1, dispatch.PermRead, cmdNoDatabase)
	}
}

func bnd(ctx *dispatch.Context) *binding { return ctx.Binding.(*binding) }

func cmdPing(ctx *dispatch.Context) (dispatch.Result, error) { return dispatch.ResultOK, nil }

func cmdNoDatabase(ctx *dispatch.Context) (dispatch.Result, error) {
	return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "no database")
}

func cmdStatus(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	st := b.partition.Player.GetStatus()
	repeat, single, random, consume := b.partition.Queue.Modes()

	ctx.Write(fmt.Sprintf("volume: %d", b.partition.Volume()))
	ctx.Write("repeat: " + boolDigit(repeat))
	ctx.Write("random: " + boolDigit(random))
	ctx.Write("single: " + boolDigit(single))
	ctx.Write("consume: " + boolDigit(consume))
	ctx.Write(fmt.Sprintf("playlist: %d", b.partition.Queue.Version()))
	ctx.Write(fmt.Sprintf("playlistlength: %d", b.partition.Queue.Length()))
	ctx.Write("state: " + st.State.String())
	if order := b.partition.Playlist.CurrentOrder(); order >= 0 {
		if pos, err := b.partition.Queue.PositionForOrder(order); err == nil {
			ctx.Write(fmt.Sprintf("song: %d", pos))
		}
		if st.CurrentSongID >= 0 {
			ctx.Write(fmt.Sprintf("songid: %d", st.CurrentSongID))
		}
	}
	if st.State.String() != "stop" {
		ctx.Write(fmt.Sprintf("time: %d:%d", int(st.ElapsedTime.Seconds()), int(st.TotalTime.Seconds())))
		ctx.Write(fmt.Sprintf("elapsed: %.3f", st.ElapsedTime.Seconds()))
		ctx.Write(fmt.Sprintf("duration: %.3f", st.TotalTime.Seconds()))
		ctx.Write(fmt.Sprintf("bitrate: %d", st.BitRate))
	}
	ctx.Write(fmt.Sprintf("xfade: %d", int(st.CrossFade.Seconds())))
	ctx.Write(fmt.Sprintf("mixrampdb: %g", st.MixRampDB))
	if st.ErrorKind != 0 {
		ctx.Write("error: " + st.ErrorMessage)
	}
	return dispatch.ResultOK, nil
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func cmdCurrentSong(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	order := b.partition.Playlist.CurrentOrder()
	if order < 0 {
		return dispatch.ResultOK, nil
	}
	entry, pos, err := b.partition.Queue.AtOrder(order)
	if err != nil {
		return dispatch.ResultOK, nil
	}
	writeSongInfo(ctx, pos, entry)
	return dispatch.ResultOK, nil
}

func cmdStats(ctx *dispatch.Context) (dispatch.Result, error) {
	ctx.Write("artists: 0")
	ctx.Write("albums: 0")
	ctx.Write("songs: 0")
	ctx.Write("uptime: 0")
	ctx.Write("playtime: 0")
	ctx.Write("db_playtime: 0")
	ctx.Write("db_update: 0")
	return dispatch.ResultOK, nil
}

func writeSongInfo(ctx *dispatch.Context, pos int, e queue.Entry) {
	ctx.Write("file: " + e.Song.ResolvedURI())
	if d := e.Song.Duration(); d > 0 {
		ctx.Write(fmt.Sprintf("Time: %d", d.Seconds()))
		ctx.Write(fmt.Sprintf("duration: %.3f", float64(d.Seconds())))
	}
	e.Song.Tag.Each(func(typ tag.Type, val string) {
		ctx.Write(typ.Name() + ": " + val)
	})
	ctx.Write(fmt.Sprintf("Pos: %d", pos))
	ctx.Write(fmt.Sprintf("Id: %d", e.ID))
	if e.Priority != 0 {
		ctx.Write(fmt.Sprintf("Prio: %d", e.Priority))
	}
}

func cmdAdd(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	uri := ctx.Args[0]
	s := song.DetachedSong{URI: uri, Tag: tag.NewBuilder().Build()}
	if _, err := b.partition.Queue.Append(s); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckPlaylistMax, "%s", err)
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdAddID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	uri := ctx.Args[0]
	s := song.DetachedSong{URI: uri, Tag: tag.NewBuilder().Build()}
	id, err := b.partition.Queue.Append(s)
	if err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckPlaylistMax, "%s", err)
	}
	if len(ctx.Args) > 1 {
		pos, perr := parseIntArg("position", ctx.Args[1])
		if perr != nil {
			return dispatch.ResultOK, perr
		}
		length := b.partition.Queue.Length()
		if err := b.partition.Queue.MoveRange(length-1, length, pos); err != nil {
			return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
		}
	}
	b.partition.Playlist.UpdateQueuedSong()
	ctx.Write(fmt.Sprintf("Id: %d", id))
	return dispatch.ResultOK, nil
}

func cmdDelete(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	start, end, err := parseRange(ctx.Args[0], b.partition.Queue.Length())
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := b.partition.Queue.DeleteRange(start, end); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdDeleteID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	id, err := parseIntArg("id", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := b.partition.Queue.DeleteID(queue.SongID(id)); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdClear(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	b.partition.Playlist.Stop()
	b.partition.Queue.Clear()
	return dispatch.ResultOK, nil
}

func cmdMove(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	start, end, err := parseRange(ctx.Args[0], b.partition.Queue.Length())
	if err != nil {
		return dispatch.ResultOK, err
	}
	to, err := parseIntArg("to", ctx.Args[1])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := b.partition.Queue.MoveRange(start, end, to); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdMoveID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	id, err := parseIntArg("id", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	to, err := parseIntArg("to", ctx.Args[1])
	if err != nil {
		return dispatch.ResultOK, err
	}
	_, pos, err := b.partition.Queue.ByID(queue.SongID(id))
	if err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	if err := b.partition.Queue.MoveID(queue.SongID(id), to-pos); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdSwap(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	a, err := parseIntArg("pos1", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	c, err := parseIntArg("pos2", ctx.Args[1])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := b.partition.Queue.SwapPositions(a, c); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdSwapID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	a, err := parseIntArg("id1", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	c, err := parseIntArg("id2", ctx.Args[1])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := b.partition.Queue.SwapIDs(queue.SongID(a), queue.SongID(c)); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdShuffle(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	b.partition.Queue.ShuffleOrder()
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdPrio(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	prio, err := parseIntArg("priority", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	for _, rng := range ctx.Args[1:] {
		start, end, err := parseRange(rng, b.partition.Queue.Length())
		if err != nil {
			return dispatch.ResultOK, err
		}
		if err := b.partition.Queue.SetPriorityRange(start, end, uint8(prio)); err != nil {
			return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
		}
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdPrioID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	prio, err := parseIntArg("priority", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	for _, idStr := range ctx.Args[1:] {
		id, err := parseIntArg("id", idStr)
		if err != nil {
			return dispatch.ResultOK, err
		}
		if err := b.partition.Queue.SetPriorityID(queue.SongID(id), uint8(prio)); err != nil {
			return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
		}
	}
	b.partition.Playlist.UpdateQueuedSong()
	return dispatch.ResultOK, nil
}

func cmdPlaylistInfo(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	all := b.partition.Queue.All()
	if len(ctx.Args) == 1 {
		start, end, err := parseRange(ctx.Args[0], len(all))
		if err != nil {
			return dispatch.ResultOK, err
		}
		if start < 0 || end > len(all) || start > end {
			return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "bad range")
		}
		all = all[start:end]
		for i := range all {
			writeSongInfo(ctx, start+i, all[i])
		}
		return dispatch.ResultOK, nil
	}
	for i, e := range all {
		writeSongInfo(ctx, i, e)
	}
	return dispatch.ResultOK, nil
}

func cmdPlaylistID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	if len(ctx.Args) == 1 {
		id, err := parseIntArg("id", ctx.Args[0])
		if err != nil {
			return dispatch.ResultOK, err
		}
		e, pos, err := b.partition.Queue.ByID(queue.SongID(id))
		if err != nil {
			return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
		}
		writeSongInfo(ctx, pos, e)
		return dispatch.ResultOK, nil
	}
	for i, e := range b.partition.Queue.All() {
		writeSongInfo(ctx, i, e)
	}
	return dispatch.ResultOK, nil
}

func cmdPlChanges(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	v, err := parseIntArg("version", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	for _, ev := range b.partition.Queue.ChangesSince(uint32(v)) {
		writeSongInfo(ctx, ev.Position, ev.Entry)
	}
	return dispatch.ResultOK, nil
}

func cmdPlChangesPosID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	v, err := parseIntArg("version", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	for _, ev := range b.partition.Queue.ChangesSince(uint32(v)) {
		ctx.Write(fmt.Sprintf("cpos: %d", ev.Position))
		ctx.Write(fmt.Sprintf("Id: %d", ev.Entry.ID))
	}
	return dispatch.ResultOK, nil
}

func cmdPlay(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	order := -1
	if len(ctx.Args) == 1 {
		pos, err := parseIntArg("pos", ctx.Args[0])
		if err != nil {
			return dispatch.ResultOK, err
		}
		o, err := b.partition.Queue.OrderForPosition(pos)
		if err != nil {
			return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
		}
		order = o
	}
	if err := b.partition.Playlist.PlayOrder(order); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdPlayID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	if len(ctx.Args) == 0 || ctx.Args[0] == "-1" {
		if err := b.partition.Playlist.PlayOrder(-1); err != nil {
			return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
		}
		return dispatch.ResultOK, nil
	}
	id, err := parseIntArg("id", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := b.partition.Playlist.PlayID(queue.SongID(id)); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdStop(ctx *dispatch.Context) (dispatch.Result, error) {
	bnd(ctx).partition.Playlist.Stop()
	return dispatch.ResultOK, nil
}

func cmdPause(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	if len(ctx.Args) == 0 {
		st := b.partition.Player.GetStatus()
		b.partition.Playlist.SetPause(st.State.String() != "pause")
		return dispatch.ResultOK, nil
	}
	v, err := parseBoolArg(ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	b.partition.Playlist.SetPause(v)
	return dispatch.ResultOK, nil
}

func cmdNext(ctx *dispatch.Context) (dispatch.Result, error) {
	if err := bnd(ctx).partition.Playlist.Next(); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckSystem, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdPrevious(ctx *dispatch.Context) (dispatch.Result, error) {
	if err := bnd(ctx).partition.Playlist.Previous(); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckSystem, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdSeek(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	pos, err := parseIntArg("pos", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	order, err := b.partition.Queue.OrderForPosition(pos)
	if err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
	}
	seconds, err := parseSecondsArg(ctx.Args[1])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := b.partition.Playlist.Seek(order, seconds*1000); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckSystem, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdSeekID(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	id, err := parseIntArg("id", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	_, pos, err := b.partition.Queue.ByID(queue.SongID(id))
	if err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	order, err := b.partition.Queue.OrderForPosition(pos)
	if err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
	}
	seconds, err := parseSecondsArg(ctx.Args[1])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := b.partition.Playlist.Seek(order, seconds*1000); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckSystem, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdSeekCur(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	arg := ctx.Args[0]
	relative := strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-")
	seconds, err := parseSecondsArg(strings.TrimPrefix(arg, "+"))
	if err != nil {
		return dispatch.ResultOK, err
	}
	order := b.partition.Playlist.CurrentOrder()
	if order < 0 {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckPlayerSync, "not playing")
	}
	if relative {
		st := b.partition.Player.GetStatus()
		seconds = int64(st.ElapsedTime.Seconds()) + seconds
	}
	if err := b.partition.Playlist.Seek(order, seconds*1000); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckSystem, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func parseSecondsArg(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, dispatch.NewAckError(dispatch.AckArg, "need a number of seconds, got %q", s)
	}
	return int64(f), nil
}

func parseBoolArg(s string) (bool, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, dispatch.NewAckError(dispatch.AckArg, "boolean (0/1) expected, got %q", s)
	}
}

func cmdRepeat(ctx *dispatch.Context) (dispatch.Result, error) {
	v, err := parseBoolArg(ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	bnd(ctx).partition.Playlist.SetRepeat(v)
	return dispatch.ResultOK, nil
}

func cmdSingle(ctx *dispatch.Context) (dispatch.Result, error) {
	v, err := parseBoolArg(ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	bnd(ctx).partition.Playlist.SetSingle(v)
	return dispatch.ResultOK, nil
}

func cmdRandom(ctx *dispatch.Context) (dispatch.Result, error) {
	v, err := parseBoolArg(ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	bnd(ctx).partition.Playlist.SetRandom(v)
	return dispatch.ResultOK, nil
}

func cmdConsume(ctx *dispatch.Context) (dispatch.Result, error) {
	v, err := parseBoolArg(ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	bnd(ctx).partition.Playlist.SetConsume(v)
	return dispatch.ResultOK, nil
}

func cmdCrossfade(ctx *dispatch.Context) (dispatch.Result, error) {
	seconds, err := parseSecondsArg(ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	bnd(ctx).partition.Player.SetCrossFade(time.Duration(seconds) * time.Second)
	return dispatch.ResultOK, nil
}

func cmdMixRampDB(ctx *dispatch.Context) (dispatch.Result, error) {
	f, err := strconv.ParseFloat(ctx.Args[0], 64)
	if err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "need a number")
	}
	bnd(ctx).partition.Player.SetMixRampDB(f)
	return dispatch.ResultOK, nil
}

func cmdMixRampDelay(ctx *dispatch.Context) (dispatch.Result, error) {
	seconds, err := parseSecondsArg(ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	bnd(ctx).partition.Player.SetMixRampDelay(time.Duration(seconds) * time.Second)
	return dispatch.ResultOK, nil
}

func cmdClearError(ctx *dispatch.Context) (dispatch.Result, error) {
	bnd(ctx).partition.Player.ClearError()
	return dispatch.ResultOK, nil
}

func cmdReplayGainStatus(ctx *dispatch.Context) (dispatch.Result, error) {
	ctx.Write("replay_gain_mode: off")
	return dispatch.ResultOK, nil
}

func cmdReplayGainMode(ctx *dispatch.Context) (dispatch.Result, error) {
	switch ctx.Args[0] {
	case "off", "track", "album", "auto":
		return dispatch.ResultOK, nil
	default:
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "unrecognized replay gain mode")
	}
}

func cmdSetVol(ctx *dispatch.Context) (dispatch.Result, error) {
	v, err := parseIntArg("vol", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := bnd(ctx).partition.SetVolume(v); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdVolumeDelta(ctx *dispatch.Context) (dispatch.Result, error) {
	delta, err := parseIntArg("change", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	b := bnd(ctx)
	v := b.partition.Volume()
	if v < 0 {
		v = 0
	}
	v += delta
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	if err := b.partition.SetVolume(v); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdOutputs(ctx *dispatch.Context) (dispatch.Result, error) {
	for i, o := range bnd(ctx).partition.Outputs() {
		ctx.Write(fmt.Sprintf("outputid: %d", i))
		ctx.Write("outputname: " + o.Name)
		ctx.Write("plugin: " + o.Plugin)
		ctx.Write("outputenabled: " + boolDigit(o.Enabled))
	}
	return dispatch.ResultOK, nil
}

func cmdEnableOutput(ctx *dispatch.Context) (dispatch.Result, error) {
	id, err := parseIntArg("id", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := bnd(ctx).partition.EnableOutput(id); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdDisableOutput(ctx *dispatch.Context) (dispatch.Result, error) {
	id, err := parseIntArg("id", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := bnd(ctx).partition.DisableOutput(id); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdToggleOutput(ctx *dispatch.Context) (dispatch.Result, error) {
	id, err := parseIntArg("id", ctx.Args[0])
	if err != nil {
		return dispatch.ResultOK, err
	}
	if err := bnd(ctx).partition.ToggleOutput(id); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdTagTypes(ctx *dispatch.Context) (dispatch.Result, error) {
	sess := bnd(ctx).session
	if len(ctx.Args) == 0 {
		for _, t := range tag.AllTypes() {
			if sess.TagTypeEnabled(t.Name()) {
				ctx.Write("tagtype: " + t.Name())
			}
		}
		return dispatch.ResultOK, nil
	}
	switch ctx.Args[0] {
	case "all":
		sess.ResetTagTypes()
	case "clear":
		sess.ClearTagTypes()
	case "reset":
		sess.ResetTagTypes()
	case "disable":
		for _, n := range ctx.Args[1:] {
			sess.SetTagTypeEnabled(n, false)
		}
	case "enable":
		for _, n := range ctx.Args[1:] {
			sess.SetTagTypeEnabled(n, true)
		}
	default:
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckArg, "unknown tagtypes subcommand")
	}
	return dispatch.ResultOK, nil
}

func cmdDecoders(ctx *dispatch.Context) (dispatch.Result, error) {
	return dispatch.ResultOK, nil
}

func cmdCommands(ctx *dispatch.Context) (dispatch.Result, error) {
	perms := dispatch.Permission(bnd(ctx).session.Permissions)
	for _, n := range bnd(ctx).instance.table.Names() {
		if c := bnd(ctx).instance.table.Lookup(n); c != nil && perms&c.Permission == c.Permission {
			ctx.Write("command: " + n)
		}
	}
	return dispatch.ResultOK, nil
}

func cmdNotCommands(ctx *dispatch.Context) (dispatch.Result, error) {
	perms := dispatch.Permission(bnd(ctx).session.Permissions)
	for _, n := range bnd(ctx).instance.table.Names() {
		if c := bnd(ctx).instance.table.Lookup(n); c != nil && perms&c.Permission != c.Permission {
			ctx.Write("command: " + n)
		}
	}
	return dispatch.ResultOK, nil
}

func cmdURLHandlers(ctx *dispatch.Context) (dispatch.Result, error) {
	ctx.Write("handler: http://")
	ctx.Write("handler: https://")
	return dispatch.ResultOK, nil
}

func cmdConfig(ctx *dispatch.Context) (dispatch.Result, error) {
	return dispatch.ResultOK, nil
}

func cmdSubscribe(ctx *dispatch.Context) (dispatch.Result, error) {
	if err := bnd(ctx).session.Subscribe(ctx.Args[0]); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckExist, "%s", err)
	}
	bnd(ctx).partition.Idle.Add(idle.Subscription)
	return dispatch.ResultOK, nil
}

func cmdUnsubscribe(ctx *dispatch.Context) (dispatch.Result, error) {
	if err := bnd(ctx).session.Unsubscribe(ctx.Args[0]); err != nil {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckNoExist, "%s", err)
	}
	return dispatch.ResultOK, nil
}

func cmdChannels(ctx *dispatch.Context) (dispatch.Result, error) {
	for _, c := range bnd(ctx).session.Channels() {
		ctx.Write("channel: " + c)
	}
	return dispatch.ResultOK, nil
}

func cmdSendMessage(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	channel, text := ctx.Args[0], ctx.Args[1]
	delivered := false
	for _, other := range b.partition.AllSessionsSubscribedTo(channel) {
		other.Deliver(session.Message{Channel: channel, Text: text})
		delivered = true
	}
	_ = delivered
	b.partition.Idle.Add(idle.Message)
	return dispatch.ResultOK, nil
}

func cmdReadMessages(ctx *dispatch.Context) (dispatch.Result, error) {
	for _, m := range bnd(ctx).session.DrainInbox() {
		ctx.Write("channel: " + m.Channel)
		ctx.Write("message: " + m.Text)
	}
	return dispatch.ResultOK, nil
}

func cmdPassword(ctx *dispatch.Context) (dispatch.Result, error) {
	b := bnd(ctx)
	perms, ok := b.instance.passwordPerms[ctx.Args[0]]
	if !ok {
		return dispatch.ResultOK, dispatch.NewAckError(dispatch.AckPassword, "incorrect password")
	}
	b.session.Permissions = session.Permission(perms)
	return dispatch.ResultOK, nil
}

func cmdKill(ctx *dispatch.Context) (dispatch.Result, error) {
	return dispatch.ResultKill, nil
}

func cmdClose(ctx *dispatch.Context) (dispatch.Result, error) {
	return dispatch.ResultClose, nil
}
