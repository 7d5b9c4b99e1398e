package magellan

// ErrorTranslator is an option that can be passed to NewEntityMapper, MapRows,
// FirstEntity, ExactlyOneEntity, MapRecords or QueryEntities
//
// and is called with any errors so that they can be translated (or wrapped)
//
// Is particularly useful for translating ErrNoRow errors to your own 'not found' errors
type ErrorTranslator interface {
	// Translate translates the passed error
	Translate(error) error
}

func translateError(err error, translator ErrorTranslator) error {
	if err == nil {
		return nil
	}
	return translator.Translate(err)
}

// ErrorTranslatorFunc is a func that can be used as an ErrorTranslator
type ErrorTranslatorFunc func(error) error

var _ ErrorTranslator = ErrorTranslatorFunc(nil)

func (f ErrorTranslatorFunc) Translate(err error) error {
	return f(err)
}

var defaultErrorTranslator ErrorTranslator = &defErrorTranslator{}

type defErrorTranslator struct{}

func (e *defErrorTranslator) Translate(err error) error {
	return err
}
