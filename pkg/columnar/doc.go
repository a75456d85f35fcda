// Package columnar holds the storage side of the bridge: typed column vectors
// and the chunks that group them.
//
// A ColumnVector wraps an Arrow array without copying it. The array may be
// plain, dictionary-encoded or run-end-encoded; the encoding is resolved once
// when the vector is built and every getter then reads the buffers in place.
//
//	rec := reader.Record()
//	chunk, err := columnar.FromRecord(rec)
//	if err != nil {
//		return err
//	}
//	defer chunk.Release()
//
//	ids := chunk.Column(0)
//	for row := 0; row < chunk.NumOfRows(); row++ {
//		if !ids.IsNullAt(row) {
//			use(ids.GetLong(row))
//		}
//	}
//
// Row and ordinal arguments outside their bounds, and getters that do not
// match a vector's declared type, panic with an *errors.Error. Use
// errors.Recover to turn them back into errors.
package columnar
